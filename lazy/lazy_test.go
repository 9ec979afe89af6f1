package lazy_test

import (
	"testing"

	"github.com/binast/context01/idl"
	"github.com/binast/context01/lazy"
	"github.com/binast/context01/schema"
	"github.com/stretchr/testify/require"
)

func buildFunctionDecl() *schema.Value {
	body := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(
			schema.NewAlternationValue(idl.ExpressionStatement, schema.NewInterfaceValue(
				schema.NewAlternationValue(idl.IdentifierExpression, schema.NewInterfaceValue(schema.NewIdentifierValue("x"))),
			)),
		),
	)
	return schema.NewInterfaceValue(
		schema.NewIdentifierValue("f"),
		schema.NewArrayValue(schema.NewIdentifierValue("x")),
		body,
	)
}

func TestExtractReplacesLazyBodyWithPlaceholder(t *testing.T) {
	fn := buildFunctionDecl()
	out, subtrees := lazy.Extract(idl.FunctionDeclaration, fn)

	require.Len(t, subtrees, 1)
	require.Equal(t, idl.FunctionBody, subtrees[0].Ty)
	require.Equal(t, schema.ValPlaceholder, out.Attrs[2].Kind)
	require.Equal(t, 0, out.Attrs[2].PlaceholderIndex)

	// Non-lazy attributes survive untouched.
	require.Equal(t, "f", out.Attrs[0].Str)
}

func TestRestoreReproducesOriginalTree(t *testing.T) {
	fn := buildFunctionDecl()
	out, subtrees := lazy.Extract(idl.FunctionDeclaration, fn)

	resolver := func(index int, ty *schema.Type) (*schema.Value, error) {
		require.Equal(t, 0, index)
		require.Equal(t, idl.FunctionBody, ty)
		return subtrees[index].Val, nil
	}

	restored, err := lazy.Restore(idl.FunctionDeclaration, out, resolver)
	require.NoError(t, err)
	require.Equal(t, schema.ValInterface, restored.Attrs[2].Kind)
	require.Len(t, restored.Attrs[2].Attrs[1].Elements, 1)
}

func TestExtractPreservesOrderAcrossMultipleLazyAttributes(t *testing.T) {
	fn1 := buildFunctionDecl()
	fn2 := buildFunctionDecl()

	script := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(
			schema.NewAlternationValue(idl.FunctionDeclaration, fn1),
			schema.NewAlternationValue(idl.FunctionDeclaration, fn2),
		),
	)

	out, subtrees := lazy.Extract(idl.Script, script)
	require.Len(t, subtrees, 2)

	s0 := out.Attrs[1].Elements[0].VariantVal.Attrs[2]
	s1 := out.Attrs[1].Elements[1].VariantVal.Attrs[2]
	require.Equal(t, 0, s0.PlaceholderIndex)
	require.Equal(t, 1, s1.PlaceholderIndex)
}
