package strtab_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/binast/context01/idl"
	"github.com/binast/context01/schema"
	"github.com/binast/context01/strtab"
	"github.com/stretchr/testify/require"
)

func TestCollectGathersStringsAndIdentifiersOnce(t *testing.T) {
	r := idl.BuildES6Subset()

	// Script{ statements: [ ExpressionStatement{ CallExpression{
	//   callee: IdentifierExpression{name:"print"},
	//   arguments: [StringLiteral{"x"}, StringLiteral{"x"}] } } ] }
	call := schema.NewInterfaceValue(
		schema.NewAlternationValue(idl.IdentifierExpression, schema.NewInterfaceValue(schema.NewIdentifierValue("print"))),
		schema.NewArrayValue(
			schema.NewAlternationValue(idl.StringLiteral, schema.NewInterfaceValue(schema.NewStringValue("x"))),
			schema.NewAlternationValue(idl.StringLiteral, schema.NewInterfaceValue(schema.NewStringValue("x"))),
		),
	)
	exprStmt := schema.NewInterfaceValue(schema.NewAlternationValue(idl.CallExpression, call))
	stmtAlt := schema.NewAlternationValue(idl.ExpressionStatement, exprStmt)
	script := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(stmtAlt),
	)

	strs := strtab.Collect(r.Root(), script)
	require.Equal(t, []string{"print", "x"}, strs)
}

func TestCollectSkipsPlaceholders(t *testing.T) {
	r := idl.BuildES6Subset()

	fn := schema.NewInterfaceValue(
		schema.NewIdentifierValue("f"),
		schema.NewArrayValue(),
		schema.NewPlaceholder(0),
	)
	stmtAlt := schema.NewAlternationValue(idl.FunctionDeclaration, fn)
	script := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(stmtAlt),
	)

	strs := strtab.Collect(r.Root(), script)
	require.Equal(t, []string{"f"}, strs)
}

func TestBuildExcludesSharedDictionary(t *testing.T) {
	shared := map[string]bool{"Array": true, "Object": true}
	used := []string{"foo", "Array", "bar", "foo"}

	tbl := strtab.Build(used, shared)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, "bar", tbl.At(0))
	require.Equal(t, "foo", tbl.At(1))

	_, ok := tbl.IndexOf("Array")
	require.False(t, ok)
	idx, ok := tbl.IndexOf("foo")
	require.True(t, ok)
	require.Equal(t, 1, idx)
}

func TestTableWriteReadRoundTrip(t *testing.T) {
	tbl := strtab.Build([]string{"zeta", "alpha", "mu"}, nil)

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))

	got, err := strtab.Read(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, tbl.Len(), got.Len())
	for i := 0; i < tbl.Len(); i++ {
		require.Equal(t, tbl.At(i), got.At(i))
	}
}
