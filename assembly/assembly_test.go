// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package assembly_test

import (
	"testing"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/stretchr/testify/require"
)

func clientServerTypes() (*lifecycle.ComponentType, *lifecycle.ComponentType) {
	server := &lifecycle.ComponentType{
		Name:    "server",
		Places:  []string{"off", "on"},
		Initial: "off",
		Running: "on",
		Ports: []lifecycle.Port{
			{Name: "api", Direction: lifecycle.Provide, Binding: map[string]struct{}{"on": {}}},
		},
	}
	client := &lifecycle.ComponentType{
		Name:    "client",
		Places:  []string{"off", "on"},
		Initial: "off",
		Running: "on",
		Ports: []lifecycle.Port{
			{Name: "backend", Direction: lifecycle.Use, Binding: map[string]struct{}{"on": {}}},
		},
	}
	return server, client
}

func TestConnectIsSymmetric(t *testing.T) {
	server, client := clientServerTypes()
	as := assembly.New()
	as.AddInstance(assembly.NewInstance("s1", server, "on"))
	as.AddInstance(assembly.NewInstance("c1", client, "on"))

	require.NoError(t, as.Connect("c1", "backend", "s1", "api"))

	c1, _ := as.Instance("c1")
	s1, _ := as.Instance("s1")
	require.Equal(t, []assembly.PeerRef{{InstanceID: "s1", Port: "api"}}, c1.Connections("backend"))
	require.Equal(t, []assembly.PeerRef{{InstanceID: "c1", Port: "backend"}}, s1.Connections("api"))

	local, ok := s1.ExternalPortConnection("c1", "backend")
	require.True(t, ok)
	require.Equal(t, "api", local)
}

func TestConnectRejectsSameDirection(t *testing.T) {
	server, _ := clientServerTypes()
	as := assembly.New()
	as.AddInstance(assembly.NewInstance("s1", server, "on"))
	as.AddInstance(assembly.NewInstance("s2", server, "on"))
	require.Error(t, as.Connect("s1", "api", "s2", "api"))
}

func TestUsePortSingleton(t *testing.T) {
	server, client := clientServerTypes()
	as := assembly.New()
	as.AddInstance(assembly.NewInstance("s1", server, "on"))
	as.AddInstance(assembly.NewInstance("s2", server, "on"))
	as.AddInstance(assembly.NewInstance("c1", client, "on"))

	require.NoError(t, as.Connect("c1", "backend", "s1", "api"))
	require.Error(t, as.Connect("c1", "backend", "s2", "api"))
}

func TestRemoveInstanceDropsConnections(t *testing.T) {
	server, client := clientServerTypes()
	as := assembly.New()
	as.AddInstance(assembly.NewInstance("s1", server, "on"))
	as.AddInstance(assembly.NewInstance("c1", client, "on"))
	require.NoError(t, as.Connect("c1", "backend", "s1", "api"))

	as.RemoveInstance("s1")
	c1, _ := as.Instance("c1")
	require.Empty(t, c1.Connections("backend"))
}

func TestPromotePlace(t *testing.T) {
	server, _ := clientServerTypes()
	inst := assembly.NewInstance("s1", server, "on")
	place, err := assembly.PromotePlace(inst, "start")
	require.NoError(t, err)
	require.Equal(t, "on", place)

	place, err = assembly.PromotePlace(inst, "initial")
	require.NoError(t, err)
	require.Equal(t, "off", place)

	place, err = assembly.PromotePlace(inst, "running")
	require.NoError(t, err)
	require.Equal(t, "on", place)
}
