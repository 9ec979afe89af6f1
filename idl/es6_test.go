package idl_test

import (
	"testing"

	"github.com/binast/context01/idl"
	"github.com/binast/context01/schema"
	"github.com/stretchr/testify/require"
)

func TestBuildES6SubsetRootIsScript(t *testing.T) {
	r := idl.BuildES6Subset()
	require.Equal(t, "Script", r.Root().Name)
	require.Same(t, r.Root(), r.Lookup("Script"))
}

func TestBuildES6SubsetRegistersOnlyNamedInterfaces(t *testing.T) {
	r := idl.BuildES6Subset()
	ifaces := r.Interfaces()

	require.Contains(t, ifaces, "FunctionDeclaration")
	require.Contains(t, ifaces, "VariableDeclarator")
	// Alternations and FrozenArrays are not Interfaces and must not leak in.
	require.NotContains(t, ifaces, "Statement")
	require.NotContains(t, ifaces, "Expression")
	require.NotContains(t, ifaces, "FrozenArray_Statement")
}

func TestFunctionDeclarationBodyIsLazy(t *testing.T) {
	r := idl.BuildES6Subset()
	fd := r.Lookup("FunctionDeclaration")
	require.NotNil(t, fd)

	var found bool
	for _, a := range fd.Attrs {
		if a.Name == "body" {
			found = true
			require.True(t, a.Lazy, "FunctionDeclaration.body must be lazy")
			require.Equal(t, "FunctionBody", a.ResolvedTy.Name)
		}
	}
	require.True(t, found, "FunctionDeclaration must declare a body attribute")
}

func TestExpressionOrNoneIncludesNone(t *testing.T) {
	r := idl.BuildES6Subset()
	require.NotNil(t, r)

	var hasNone bool
	for _, v := range idl.ExpressionOrNone.Variants {
		if v == schema.None {
			hasNone = true
		}
	}
	require.True(t, hasNone, "Expression_opt must include schema.None as a variant")
}

func TestWalkFromScriptTerminates(t *testing.T) {
	r := idl.BuildES6Subset()

	var visited []string
	v := schema.FuncVisitor{
		Interface:   func(t *schema.Type) { visited = append(visited, t.Name) },
		Alternation: func(t *schema.Type) { visited = append(visited, t.Name) },
		Enumeration: func(t *schema.Type) { visited = append(visited, t.Name) },
		Primitive:   func(t *schema.Type) { visited = append(visited, t.Name) },
		FrozenArray: func(t *schema.Type) { visited = append(visited, t.Name) },
	}
	schema.Walk(r.Root(), v)

	// Recursive Statement<->Expression must each be visited exactly once.
	counts := make(map[string]int)
	for _, n := range visited {
		counts[n]++
	}
	require.Equal(t, 1, counts["Statement"])
	require.Equal(t, 1, counts["Expression"])
	require.Equal(t, 1, counts["FunctionBody"])
}
