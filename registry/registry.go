// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package registry holds the inventory of declared component types (§3),
// looked up by planner nodes when materializing an assembly's instances
// and building their per-instance solver models.
package registry

import (
	"slices"
	"sync"

	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/lifecycle"
)

// Registry manages declared component types for lookup by planner nodes,
// keyed by type name (§3's ComponentType.Name).
type Registry struct {
	mu    sync.RWMutex
	types map[string]*lifecycle.ComponentType
}

// NewRegistry returns an empty type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*lifecycle.ComponentType)}
}

// Register validates typ (§7's MalformedType checks) and adds it under its
// declared name, replacing any previous registration of the same name.
func (r *Registry) Register(typ *lifecycle.ComponentType) error {
	if err := typ.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[typ.Name] = typ
	return nil
}

// TypeByName looks up a registered component type.
func (r *Registry) TypeByName(name string) (*lifecycle.ComponentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.types[name]
	if !ok {
		return nil, &errs.MalformedType{Type: name, Reason: "not registered"}
	}
	return typ, nil
}

// Names returns every registered type name, ascending.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
