// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package plan_test

import (
	"testing"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/coatyio/reconplan/plan"
	"github.com/stretchr/testify/require"
)

func typeT() *lifecycle.ComponentType {
	return &lifecycle.ComponentType{
		Name:    "T",
		Places:  []string{"s"},
		Initial: "s",
		Ports: []lifecycle.Port{
			{Name: "p", Direction: lifecycle.Provide, Binding: map[string]struct{}{"s": {}}},
			{Name: "q", Direction: lifecycle.Use, Binding: map[string]struct{}{"s": {}}},
		},
	}
}

// TestDiffScenarioS4 mirrors spec scenario S4: components_in={a:T,b:T},
// conn_in={(a.p,b.q)}; components_out={a:T,c:T}, conn_out={(a.p,c.q)}.
func TestDiffScenarioS4(t *testing.T) {
	typ := typeT()

	in := assembly.New()
	in.AddInstance(assembly.NewInstance("a", typ, "s"))
	in.AddInstance(assembly.NewInstance("b", typ, "s"))
	require.NoError(t, in.Connect("a", "p", "b", "q"))

	out := assembly.New()
	out.AddInstance(assembly.NewInstance("a", typ, "s"))
	out.AddInstance(assembly.NewInstance("c", typ, "s"))
	require.NoError(t, out.Connect("a", "p", "c", "q"))

	instrs := plan.Diff(in, out)
	b := plan.Split(instrs)

	require.Equal(t, []plan.Instruction{plan.NewAdd("c", "T")}, b.Add)
	require.Equal(t, []plan.Instruction{plan.NewDel("b")}, b.Del)
	require.Equal(t, []plan.Instruction{plan.NewConnect("a", "p", "c", "q")}, b.Connect)
	require.Equal(t, []plan.Instruction{plan.NewDisconnect("a", "p", "b", "q")}, b.Disconnect)
}
