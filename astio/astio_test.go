package astio_test

import (
	"encoding/json"
	"testing"

	"github.com/binast/context01/astio"
	"github.com/binast/context01/idl"
	"github.com/binast/context01/schema"
	"github.com/stretchr/testify/require"
)

func TestLoadSimpleScript(t *testing.T) {
	r := idl.BuildES6Subset()
	doc := []byte(`{
		"directives": [],
		"statements": [
			{
				"type": "ExpressionStatement",
				"expression": {
					"type": "IdentifierExpression",
					"name": "x"
				}
			}
		]
	}`)

	v, err := astio.Load(doc, r.Root())
	require.NoError(t, err)

	stmt := v.Attrs[1].Elements[0]
	require.Equal(t, idl.ExpressionStatement, stmt.VariantTy)
	require.Equal(t, "x", stmt.VariantVal.Attrs[0].VariantVal.Attrs[0].Str)
}

func TestLoadNoneVariant(t *testing.T) {
	r := idl.BuildES6Subset()
	doc := []byte(`{
		"directives": [],
		"statements": [
			{
				"type": "VariableDeclarationStatement",
				"declarations": [
					{"name": "y", "init": null}
				]
			}
		]
	}`)

	v, err := astio.Load(doc, r.Root())
	require.NoError(t, err)

	decl := v.Attrs[1].Elements[0].VariantVal.Attrs[0].Elements[0]
	require.Equal(t, schema.None, decl.Attrs[1].VariantTy)
}

func TestLoadRejectsUnknownVariantTag(t *testing.T) {
	r := idl.BuildES6Subset()
	doc := []byte(`{
		"directives": [],
		"statements": [
			{"type": "NotARealStatement"}
		]
	}`)

	_, err := astio.Load(doc, r.Root())
	require.Error(t, err)
}

func TestLoadRejectsMissingDiscriminator(t *testing.T) {
	r := idl.BuildES6Subset()
	doc := []byte(`{
		"directives": [],
		"statements": [
			{"expression": {}}
		]
	}`)

	_, err := astio.Load(doc, r.Root())
	require.Error(t, err)
}

func TestLoadNumericLiteral(t *testing.T) {
	doc := []byte(`{"value": 3.5}`)
	v, err := astio.Load(doc, idl.NumericLiteral)
	require.NoError(t, err)
	require.Equal(t, 3.5, v.Attrs[0].Double)
}

func TestDumpThenLoadRoundTrips(t *testing.T) {
	r := idl.BuildES6Subset()
	orig := []byte(`{
		"directives": [],
		"statements": [
			{
				"type": "ExpressionStatement",
				"expression": {"type": "IdentifierExpression", "name": "x"}
			}
		]
	}`)
	v, err := astio.Load(orig, r.Root())
	require.NoError(t, err)

	dumped, err := astio.Dump(r.Root(), v)
	require.NoError(t, err)

	encoded, err := json.Marshal(dumped)
	require.NoError(t, err)

	v2, err := astio.Load(encoded, r.Root())
	require.NoError(t, err)

	stmt1 := v.Attrs[1].Elements[0].VariantVal.Attrs[0].VariantVal.Attrs[0].Str
	stmt2 := v2.Attrs[1].Elements[0].VariantVal.Attrs[0].VariantVal.Attrs[0].Str
	require.Equal(t, stmt1, stmt2)
}
