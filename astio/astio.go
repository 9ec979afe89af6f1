// Package astio loads a tree from the generic JSON an external parser
// produces into the typed schema.Value trees the rest of the codec
// operates on (spec §6: "the IDL parser and the tree's producer are
// external collaborators"). It is deliberately generic over JSON's own
// type system — numbers, strings, objects, arrays, null, bool — rather
// than any one parser's AST node shape, and resolves Alternation
// variants by a "type" discriminator field, the same convention
// real-world ASTs serialized to JSON (ESTree, Babel's AST) use.
package astio

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/binast/context01/binerr"
	"github.com/binast/context01/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// TypeTag is the JSON object key used to discriminate an Alternation's
// chosen variant, following the ESTree/Babel convention.
const TypeTag = "type"

// Load parses data as JSON and converts it into a tree against ty.
func Load(data []byte, ty *schema.Type) (*schema.Value, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("astio: parse JSON: %w", err)
	}
	return convert(ty, raw)
}

// LoadValidated is Load preceded by a JSON Schema validation pass: data
// must conform to sch (a compiled santhosh-tekuri/jsonschema document)
// before any structural conversion is attempted, so a malformed document
// is reported as a SchemaViolation carrying the validator's JSON-pointer
// path rather than failing deep in conversion.
func LoadValidated(data []byte, ty *schema.Type, sch *jsonschema.Schema) (*schema.Value, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("astio: parse JSON: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", binerr.ErrSchemaViolation, err)
	}
	return Load(data, ty)
}

// CompileSchema compiles a JSON Schema document (as used by
// LoadValidated) from raw bytes.
func CompileSchema(name string, data []byte) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("astio: add schema resource: %w", err)
	}
	return c.Compile(name)
}

// Dump renders a tree back to the JSON convention Load accepts: objects
// for Interface values, a "type" discriminator on Alternation values,
// JSON null for None, arrays for FrozenArrays. It round-trips with Load
// (Dump then Load reproduces an equal tree) and is mainly useful for the
// CLI's decode output and for tests that want a human-readable tree dump.
func Dump(ty *schema.Type, val *schema.Value) (interface{}, error) {
	switch ty.Kind {
	case schema.KindInterface:
		obj := make(map[string]interface{}, len(ty.Attrs))
		for i, attr := range ty.Attrs {
			if attr.Lazy && val.Attrs[i].Kind == schema.ValPlaceholder {
				obj[attr.Name] = fmt.Sprintf("<lazy:%d>", val.Attrs[i].PlaceholderIndex)
				continue
			}
			v, err := Dump(attr.ResolvedTy, val.Attrs[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ty.Name, attr.Name, err)
			}
			obj[attr.Name] = v
		}
		return obj, nil
	case schema.KindAlternation:
		if val.VariantTy == schema.None {
			return nil, nil
		}
		v, err := Dump(val.VariantTy, val.VariantVal)
		if err != nil {
			return nil, err
		}
		obj, _ := v.(map[string]interface{})
		if obj == nil {
			obj = map[string]interface{}{}
		}
		obj[TypeTag] = val.VariantTy.Name
		return obj, nil
	case schema.KindEnumeration:
		return val.Symbol, nil
	case schema.KindFrozenArray:
		arr := make([]interface{}, len(val.Elements))
		for i, e := range val.Elements {
			v, err := Dump(ty.Element, e)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", ty.Name, i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case schema.KindPrimitive:
		switch ty.Prim {
		case schema.PrimBoolean:
			return val.Bool, nil
		case schema.PrimUint:
			return val.Uint, nil
		case schema.PrimDouble:
			return val.Double, nil
		case schema.PrimString, schema.PrimIdentifier:
			return val.Str, nil
		case schema.PrimNone:
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown type kind for %s", binerr.ErrSchemaViolation, ty.Name)
}

func convert(ty *schema.Type, raw interface{}) (*schema.Value, error) {
	switch ty.Kind {
	case schema.KindInterface:
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON object, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		attrs := make([]*schema.Value, len(ty.Attrs))
		for i, attr := range ty.Attrs {
			v, err := convert(attr.ResolvedTy, obj[attr.Name])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ty.Name, attr.Name, err)
			}
			attrs[i] = v
		}
		return schema.NewInterfaceValue(attrs...), nil

	case schema.KindAlternation:
		if raw == nil {
			if !hasNone(ty) {
				return nil, fmt.Errorf("%w: %s has no None variant, got JSON null", binerr.ErrSchemaViolation, ty.Name)
			}
			return schema.NewAlternationValue(schema.None, nil), nil
		}
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON object, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		tag, ok := obj[TypeTag].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s value missing %q discriminator", binerr.ErrSchemaViolation, ty.Name, TypeTag)
		}
		variant := findVariant(ty, tag)
		if variant == nil {
			return nil, fmt.Errorf("%w: %q is not a declared variant of %s", binerr.ErrSchemaViolation, tag, ty.Name)
		}
		v, err := convert(variant, raw)
		if err != nil {
			return nil, err
		}
		return schema.NewAlternationValue(variant, v), nil

	case schema.KindEnumeration:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON string, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		for _, sym := range ty.Symbols {
			if sym == s {
				return schema.NewEnumValue(s), nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a declared member of %s", binerr.ErrSchemaViolation, s, ty.Name)

	case schema.KindFrozenArray:
		arr, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON array, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		elems := make([]*schema.Value, len(arr))
		for i, e := range arr {
			v, err := convert(ty.Element, e)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", ty.Name, i, err)
			}
			elems[i] = v
		}
		return schema.NewArrayValue(elems...), nil

	case schema.KindPrimitive:
		return convertPrimitive(ty, raw)
	}
	return nil, fmt.Errorf("%w: unknown type kind for %s", binerr.ErrSchemaViolation, ty.Name)
}

func convertPrimitive(ty *schema.Type, raw interface{}) (*schema.Value, error) {
	switch ty.Prim {
	case schema.PrimBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON bool, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		return schema.NewBoolValue(b), nil
	case schema.PrimUint:
		n, err := jsonNumber(ty, raw)
		if err != nil {
			return nil, err
		}
		return schema.NewUintValue(uint64(n)), nil
	case schema.PrimDouble:
		n, err := jsonNumber(ty, raw)
		if err != nil {
			return nil, err
		}
		return schema.NewDoubleValue(n), nil
	case schema.PrimString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON string, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		return schema.NewStringValue(s), nil
	case schema.PrimIdentifier:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a JSON string, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
		}
		return schema.NewIdentifierValue(s), nil
	case schema.PrimNone:
		return schema.NewNoneValue(), nil
	}
	return nil, fmt.Errorf("%w: unexpected primitive kind for %s", binerr.ErrSchemaViolation, ty.Name)
}

func jsonNumber(ty *schema.Type, raw interface{}) (float64, error) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", binerr.ErrSchemaViolation, ty.Name, err)
		}
		return f, nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s expects a JSON number, got %T", binerr.ErrSchemaViolation, ty.Name, raw)
	}
}

func hasNone(alt *schema.Type) bool {
	for _, v := range alt.Variants {
		if v == schema.None {
			return true
		}
	}
	return false
}

func findVariant(alt *schema.Type, tag string) *schema.Type {
	for _, v := range alt.Variants {
		if v.Name == tag {
			return v
		}
	}
	return nil
}
