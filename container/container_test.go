package container_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/binast/context01/container"
	"github.com/binast/context01/idl"
	"github.com/binast/context01/schema"
	"github.com/stretchr/testify/require"
)

func emptyScript() *schema.Value {
	return schema.NewInterfaceValue(schema.NewArrayValue(), schema.NewArrayValue())
}

func identifierEchoScript() *schema.Value {
	exprStmt := schema.NewInterfaceValue(
		schema.NewAlternationValue(idl.IdentifierExpression, schema.NewInterfaceValue(schema.NewIdentifierValue("x"))),
	)
	return schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(schema.NewAlternationValue(idl.ExpressionStatement, exprStmt)),
	)
}

func lazyFunctionScript() *schema.Value {
	body := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(
			schema.NewAlternationValue(idl.ReturnStatement, schema.NewInterfaceValue(
				schema.NewAlternationValue(idl.NumericLiteral, schema.NewInterfaceValue(schema.NewDoubleValue(42))),
			)),
		),
	)
	fn := schema.NewInterfaceValue(
		schema.NewIdentifierValue("f"),
		schema.NewArrayValue(),
		body,
	)
	return schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(schema.NewAlternationValue(idl.FunctionDeclaration, fn)),
	)
}

// nestedLazyFunctionScript builds a function whose body contains another
// lazy function declaration, so that the outer FunctionDeclaration.body
// placeholder, once extracted, itself still contains an unresolved
// FunctionDeclaration.body placeholder one level down.
func nestedLazyFunctionScript() *schema.Value {
	innerBody := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(
			schema.NewAlternationValue(idl.ReturnStatement, schema.NewInterfaceValue(
				schema.NewAlternationValue(idl.NumericLiteral, schema.NewInterfaceValue(schema.NewDoubleValue(7))),
			)),
		),
	)
	inner := schema.NewInterfaceValue(
		schema.NewIdentifierValue("inner"),
		schema.NewArrayValue(),
		innerBody,
	)
	outerBody := schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(schema.NewAlternationValue(idl.FunctionDeclaration, inner)),
	)
	outer := schema.NewInterfaceValue(
		schema.NewIdentifierValue("outer"),
		schema.NewArrayValue(),
		outerBody,
	)
	return schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(schema.NewAlternationValue(idl.FunctionDeclaration, outer)),
	)
}

func TestRoundTripNestedLazyFunction(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, nestedLazyFunctionScript(), nil))

	got, err := container.Decode(bytes.NewReader(buf.Bytes()), r, nil)
	require.NoError(t, err)

	outer := got.Attrs[1].Elements[0].VariantVal
	require.Equal(t, "outer", outer.Attrs[0].Str)
	outerBody := outer.Attrs[2]
	require.Equal(t, schema.ValInterface, outerBody.Kind)

	inner := outerBody.Attrs[1].Elements[0].VariantVal
	require.Equal(t, "inner", inner.Attrs[0].Str)
	innerBody := inner.Attrs[2]
	require.Equal(t, schema.ValInterface, innerBody.Kind)
	ret := innerBody.Attrs[1].Elements[0].VariantVal
	require.Equal(t, float64(7), ret.Attrs[0].VariantVal.Attrs[0].Double)
}

// uintInDoubleSlotScript builds a NumericLiteral carrying a ValUint where
// the schema declares a double, the case FloatFixer exists to coerce.
func uintInDoubleSlotScript() *schema.Value {
	exprStmt := schema.NewInterfaceValue(
		schema.NewAlternationValue(idl.NumericLiteral, schema.NewInterfaceValue(schema.NewUintValue(42))),
	)
	return schema.NewInterfaceValue(
		schema.NewArrayValue(),
		schema.NewArrayValue(schema.NewAlternationValue(idl.ExpressionStatement, exprStmt)),
	)
}

func TestEncodeCoercesUintInDoubleSlot(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, uintInDoubleSlotScript(), nil))

	got, err := container.Decode(bytes.NewReader(buf.Bytes()), r, nil)
	require.NoError(t, err)

	stmt := got.Attrs[1].Elements[0].VariantVal
	lit := stmt.Attrs[0].VariantVal
	require.Equal(t, schema.ValDouble, lit.Attrs[0].Kind)
	require.Equal(t, float64(42), lit.Attrs[0].Double)
}

func TestRoundTripEmptyScript(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, emptyScript(), nil))

	require.Equal(t, container.Magic[:], buf.Bytes()[:8])
	require.Equal(t, byte(container.Version), buf.Bytes()[8])

	got, err := container.Decode(bytes.NewReader(buf.Bytes()), r, nil)
	require.NoError(t, err)
	require.Empty(t, got.Attrs[0].Elements)
	require.Empty(t, got.Attrs[1].Elements)
}

func TestRoundTripIdentifierEcho(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, identifierEchoScript(), nil))

	got, err := container.Decode(bytes.NewReader(buf.Bytes()), r, nil)
	require.NoError(t, err)

	stmt := got.Attrs[1].Elements[0].VariantVal
	require.Equal(t, "x", stmt.Attrs[0].VariantVal.Attrs[0].Str)
}

func TestRoundTripLazyFunction(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, lazyFunctionScript(), nil))

	got, err := container.Decode(bytes.NewReader(buf.Bytes()), r, nil)
	require.NoError(t, err)

	fn := got.Attrs[1].Elements[0].VariantVal
	require.Equal(t, "f", fn.Attrs[0].Str)
	body := fn.Attrs[2]
	require.Equal(t, schema.ValInterface, body.Kind)
	ret := body.Attrs[1].Elements[0].VariantVal
	require.Equal(t, float64(42), ret.Attrs[0].VariantVal.Attrs[0].Double)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, emptyScript(), nil))

	corrupt := buf.Bytes()
	corrupt[0] ^= 0xFF

	_, err := container.Decode(bytes.NewReader(corrupt), r, nil)
	require.Error(t, err)
	var fmtErr *container.FormatMismatchError
	require.ErrorAs(t, err, &fmtErr)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	r := idl.BuildES6Subset()
	var buf bytes.Buffer
	require.NoError(t, container.Encode(&buf, r, emptyScript(), nil))

	corrupt := buf.Bytes()
	corrupt[8] = 0x99

	_, err := container.Decode(bytes.NewReader(corrupt), r, nil)
	require.Error(t, err)
}

func TestSchemaViolationRejectsWrongAttributeCount(t *testing.T) {
	r := idl.BuildES6Subset()
	bad := schema.NewInterfaceValue(schema.NewArrayValue()) // Script needs 2 attrs

	var buf bytes.Buffer
	err := container.Encode(&buf, r, bad, nil)
	require.Error(t, err)
	var violation *container.SchemaViolationError
	require.ErrorAs(t, err, &violation)
}

// TestConcurrentEncodeDecode exercises spec §5: a resolver built once is
// safe for concurrent, independent Encode/Decode calls.
func TestConcurrentEncodeDecode(t *testing.T) {
	r := idl.BuildES6Subset()
	scripts := []*schema.Value{emptyScript(), identifierEchoScript(), lazyFunctionScript(), nestedLazyFunctionScript()}

	var wg sync.WaitGroup
	errs := make(chan error, len(scripts)*8)
	for i := 0; i < 8; i++ {
		for _, s := range scripts {
			wg.Add(1)
			go func(s *schema.Value) {
				defer wg.Done()
				var buf bytes.Buffer
				if err := container.Encode(&buf, r, s, nil); err != nil {
					errs <- err
					return
				}
				if _, err := container.Decode(bytes.NewReader(buf.Bytes()), r, nil); err != nil {
					errs <- err
				}
			}(s)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
