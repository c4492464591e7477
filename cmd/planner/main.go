// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

/*
Starts a planner that resolves a reconfiguration goal set against a current
and target assembly, printing the resulting instruction sequence to stdout.

For usage details, run planner with the command line flag -h or --help.
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/clog"
	"github.com/coatyio/reconplan/config"
	"github.com/coatyio/reconplan/driver"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/messaging"
)

func main() {
	var assemblyInPath, assemblyOutPath, goalsPath string
	var ddaAddress string
	var timeout time.Duration
	var help bool
	var log bool

	flag.Usage = usage
	flag.StringVar(&assemblyInPath, "assembly-in", "", "path to the current assembly JSON file")
	flag.StringVar(&assemblyOutPath, "assembly-out", "", "path to the target assembly JSON file")
	flag.StringVar(&goalsPath, "goals", "", "path to the reconfiguration goals JSON file")
	flag.StringVar(&ddaAddress, "dda-addr", "", "address (host:port) of dda broker; empty runs local-only (MailboxMessaging)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "planning deadline")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.BoolVar(&log, "l", false, "Show logging output (for debugging)")
	flag.Parse()

	if help || assemblyInPath == "" || assemblyOutPath == "" || goalsPath == "" {
		usage()
		if help {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if log {
		clog.Enable()
	}

	assemblyIn, err := openAssembly(assemblyInPath)
	if err != nil {
		fatal(err)
	}
	assemblyOut, err := openAssembly(assemblyOutPath)
	if err != nil {
		fatal(err)
	}
	goals, err := openGoals(goalsPath)
	if err != nil {
		fatal(err)
	}

	// Handle SIGTERM: cancel the planning context to unwind PlannerNode.Run
	// goroutines cleanly rather than leaving them running past process exit.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-sigCh; ok {
			fmt.Fprintln(os.Stderr, "Terminating planner on signal...")
			cancel()
		}
	}()

	registry := messaging.NewAckRegistry()
	var msg messaging.Messaging
	if ddaAddress == "" {
		msg = messaging.NewMailboxMessaging(registry)
	} else {
		remote, err := messaging.NewRemoteMessaging(ctx, ddaAddress, registry)
		if err != nil {
			fatal(err)
		}
		msg = remote
	}

	instrs, err := driver.Resolve(ctx, assemblyIn, assemblyOut, goals, msg, driver.DefaultPollInterval)
	if err != nil {
		fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(instrs); err != nil {
		fatal(err)
	}
}

func openAssembly(path string) (*assembly.Assembly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	a, _, err := config.Assembly(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return a, nil
}

func openGoals(path string) (map[string][]goal.Goal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := config.Goals(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "planner:", err)
	os.Exit(1)
}

func usage() {
	fmt.Printf(`usage: planner [-h] [-l] [-dda-addr addr] [-timeout d] -assembly-in f -assembly-out f -goals f

Resolves a reconfiguration goal set against a current and target assembly,
printing the resulting instruction sequence as JSON to stdout.

Flags:
`)
	flag.PrintDefaults()
}
