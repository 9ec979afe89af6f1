package model_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/binast/context01/binerr"
	"github.com/binast/context01/idl"
	"github.com/binast/context01/model"
	"github.com/binast/context01/schema"
	"github.com/stretchr/testify/require"
)

func buildSample(r *idl.Resolver) *schema.Value {
	// Script{ directives: [], statements: [
	//   VariableDeclarationStatement{ declarations: [
	//     VariableDeclarator{name:"x", init: NumericLiteral{1}},
	//     VariableDeclarator{name:"y", init: None},
	//   ]},
	//   ExpressionStatement{ IdentifierExpression{"x"} },
	// ]}
	decl1 := schema.NewInterfaceValue(
		schema.NewIdentifierValue("x"),
		schema.NewAlternationValue(idl.NumericLiteral, schema.NewInterfaceValue(schema.NewDoubleValue(1))),
	)
	decl2 := schema.NewInterfaceValue(
		schema.NewIdentifierValue("y"),
		schema.NewAlternationValue(schema.None, nil),
	)
	varDeclStmt := schema.NewInterfaceValue(schema.NewArrayValue(decl1, decl2))
	exprStmt := schema.NewInterfaceValue(
		schema.NewAlternationValue(idl.IdentifierExpression, schema.NewInterfaceValue(schema.NewIdentifierValue("x"))),
	)
	script := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(
			schema.NewAlternationValue(idl.VariableDeclarationStatement, varDeclStmt),
			schema.NewAlternationValue(idl.ExpressionStatement, exprStmt),
		),
	)
	return script
}

func TestAllocateIsDeterministicAcrossResolverInstances(t *testing.T) {
	r1 := idl.BuildES6Subset()
	r2 := idl.BuildES6Subset()

	s1 := model.Allocate(r1.Root())
	s2 := model.Allocate(r2.Root())
	require.Equal(t, s1.Len(), s2.Len())
}

func TestBuilderObserveAndBuild(t *testing.T) {
	r := idl.BuildES6Subset()
	s := model.Allocate(r.Root())

	b := model.NewBuilder(s)
	b.Observe(r.Root(), buildSample(r))

	m, err := b.Build()
	require.NoError(t, err)

	_, ok := s.IDOf(idl.Script, "statements")
	require.False(t, ok, "FrozenArray-typed attributes are not bounded-choice ids themselves")

	_, err = m.DistFor(idl.Script, "statements")
	require.Error(t, err)

	lenDist, err := m.DistFor(idl.StatementList, "list-length")
	require.NoError(t, err)
	require.GreaterOrEqual(t, lenDist.Len(), 1)
}

func TestModelWriteReadRoundTrip(t *testing.T) {
	r := idl.BuildES6Subset()
	s := model.Allocate(r.Root())

	b := model.NewBuilder(s)
	b.Observe(r.Root(), buildSample(r))
	m, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, model.Write(&buf, m))

	got, err := model.Read(bufio.NewReader(&buf), s)
	require.NoError(t, err)

	d1, err := m.DistFor(idl.VariableDeclarator, "init")
	require.NoError(t, err)
	d2, err := got.DistFor(idl.VariableDeclarator, "init")
	require.NoError(t, err)
	require.Equal(t, d1.Len(), d2.Len())
	for i := 0; i < d1.Len(); i++ {
		require.Equal(t, d1.Weight(i), d2.Weight(i))
	}
}

func TestModelMismatchOnWrongSymbolCount(t *testing.T) {
	r := idl.BuildES6Subset()
	s := model.Allocate(r.Root())

	var buf bytes.Buffer
	// Hand-craft a wire section whose first bounded-choice entry declares
	// the wrong symbol count. From Script the canonical order starts with
	// FrozenArray_string's list-length, then FrozenArray_Statement's
	// list-length (both empty here), then FrozenArray_Statement's element
	// entry, which must declare one symbol per Statement variant.
	buf.Write([]byte{0x00, 0x00, 0x63}) // a deliberately wrong varint count (99)
	_, err := model.Read(bufio.NewReader(&buf), s)
	require.Error(t, err)
	require.ErrorIs(t, err, binerr.ErrModelMismatch)
}
