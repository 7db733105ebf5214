package codec

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/schema"
)

var (
	uint128Type = reflect.TypeOf(Uint128{})
	int128Type  = reflect.TypeOf(Int128{})
)

// Compiler binds shapes to Go types and caches the result.
type Compiler struct {
	cache sync.Map // cacheKey -> *CompiledType
}

type cacheKey struct {
	goType reflect.Type
	shape  *schema.Shape
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile binds shape to goType. Pointer Go types are dereferenced unless
// the shape itself is an Option, which expects the pointer.
func (c *Compiler) Compile(shape *schema.Shape, goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if shape == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			GoType(goType.String()).
			Detail("shape cannot be nil").
			Build()
	}

	if goType.Kind() == reflect.Ptr && shape.Kind != schema.KindOption {
		goType = goType.Elem()
	}

	key := cacheKey{shape: shape, goType: goType}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*CompiledType), nil
	}

	if err := shape.Validate(); err != nil {
		return nil, err
	}

	b := &binder{pending: make(map[cacheKey]*CompiledType)}
	ct, err := b.compile(shape, goType, nil)
	if err != nil {
		return nil, err
	}

	actual, _ := c.cache.LoadOrStore(key, ct)
	return actual.(*CompiledType), nil
}

// binder holds the in-progress table for one Compile call so recursive
// shapes resolve to the same CompiledType instead of looping.
type binder struct {
	pending map[cacheKey]*CompiledType
}

func (b *binder) compile(shape *schema.Shape, goType reflect.Type, path []string) (*CompiledType, error) {
	key := cacheKey{shape: shape, goType: goType}
	if ct, ok := b.pending[key]; ok {
		return ct, nil
	}

	ct := &CompiledType{
		GoType:  goType,
		Shape:   shape,
		Kind:    shape.Kind,
		Len:     shape.Len,
		MinSize: shape.MinSize(),
	}
	b.pending[key] = ct

	var err error
	switch shape.Kind {
	case schema.KindString:
		if goType.Kind() != reflect.String {
			err = errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "string")
		}
	case schema.KindArray:
		err = b.compileArray(ct, shape, goType, path)
	case schema.KindSequence:
		err = b.compileSequence(ct, shape, goType, path)
	case schema.KindOption:
		err = b.compileOption(ct, shape, goType, path)
	case schema.KindStruct:
		err = b.compileStruct(ct, shape, goType, path)
	case schema.KindEnum:
		err = b.compileEnum(ct, shape, goType, path)
	default:
		err = validatePrimitive(shape.Kind, goType, path)
	}
	if err != nil {
		delete(b.pending, key)
		return nil, err
	}
	return ct, nil
}

func validatePrimitive(kind schema.Kind, goType reflect.Type, path []string) error {
	var valid bool
	var expected string

	switch kind {
	case schema.KindBool:
		valid = goType.Kind() == reflect.Bool
		expected = "bool"
	case schema.KindU8:
		valid = goType.Kind() == reflect.Uint8
		expected = "uint8"
	case schema.KindU16:
		valid = goType.Kind() == reflect.Uint16
		expected = "uint16"
	case schema.KindU32:
		valid = goType.Kind() == reflect.Uint32
		expected = "uint32"
	case schema.KindU64:
		valid = goType.Kind() == reflect.Uint64
		expected = "uint64"
	case schema.KindU128:
		valid = goType == uint128Type
		expected = "codec.Uint128"
	case schema.KindI8:
		valid = goType.Kind() == reflect.Int8
		expected = "int8"
	case schema.KindI16:
		valid = goType.Kind() == reflect.Int16
		expected = "int16"
	case schema.KindI32:
		valid = goType.Kind() == reflect.Int32
		expected = "int32"
	case schema.KindI64:
		valid = goType.Kind() == reflect.Int64
		expected = "int64"
	case schema.KindI128:
		valid = goType == int128Type
		expected = "codec.Int128"
	case schema.KindF32:
		valid = goType.Kind() == reflect.Float32
		expected = "float32"
	case schema.KindF64:
		valid = goType.Kind() == reflect.Float64
		expected = "float64"
	case schema.KindUnit:
		valid = goType.Kind() == reflect.Struct && goType.NumField() == 0
		expected = "struct{}"
	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported shape kind: %s", kind).
			Build()
	}

	if !valid {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), expected)
	}
	return nil
}

func (b *binder) compileArray(ct *CompiledType, shape *schema.Shape, goType reflect.Type, path []string) error {
	if goType.Kind() != reflect.Array {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), shape.String())
	}
	if goType.Len() != shape.Len {
		return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			Path(path...).
			GoType(goType.String()).
			Shape(shape.String()).
			Detail("array length %d, want %d", goType.Len(), shape.Len).
			Build()
	}

	elem, err := b.compile(shape.Elem, goType.Elem(), appendPath(path, "[elem]"))
	if err != nil {
		return err
	}
	ct.Elem = elem
	return nil
}

func (b *binder) compileSequence(ct *CompiledType, shape *schema.Shape, goType reflect.Type, path []string) error {
	if goType.Kind() != reflect.Slice {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "slice")
	}

	elem, err := b.compile(shape.Elem, goType.Elem(), appendPath(path, "[elem]"))
	if err != nil {
		return err
	}
	ct.Elem = elem
	return nil
}

func (b *binder) compileOption(ct *CompiledType, shape *schema.Shape, goType reflect.Type, path []string) error {
	if goType.Kind() != reflect.Ptr {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "pointer")
	}

	elem, err := b.compile(shape.Elem, goType.Elem(), appendPath(path, "[some]"))
	if err != nil {
		return err
	}
	ct.Elem = elem
	return nil
}

func (b *binder) compileStruct(ct *CompiledType, shape *schema.Shape, goType reflect.Type, path []string) error {
	if goType.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct")
	}

	fields, err := b.bindFields(shape.Fields, goType, appendPath(path, shape.Name))
	if err != nil {
		return err
	}
	ct.Fields = fields
	return nil
}

func (b *binder) bindFields(fields []schema.Field, goType reflect.Type, path []string) ([]CompiledField, error) {
	out := make([]CompiledField, 0, len(fields))
	for i, f := range fields {
		goField, found := findGoField(goType, f.Name, i)
		if !found {
			return nil, errors.FieldMissing(errors.PhaseCompile, path, f.Name)
		}

		fieldType, err := b.compile(f.Shape, goField.Type, appendPath(path, f.Name))
		if err != nil {
			return nil, err
		}

		out = append(out, CompiledField{
			Type:    fieldType,
			Name:    f.Name,
			GoName:  goField.Name,
			GoIndex: goField.Index[0],
		})
	}
	return out, nil
}

// compileEnum accepts a Go integer holding the ordinal when no variant has a
// payload, otherwise a struct with one pointer field per variant.
func (b *binder) compileEnum(ct *CompiledType, shape *schema.Shape, goType reflect.Type, path []string) error {
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int, reflect.Uint:
		if !shape.IsUnitOnly() {
			return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				GoType(goType.String()).
				Shape(shape.String()).
				Detail("integer binding requires every variant to be payload-less").
				Build()
		}
		ct.IntEnum = true
		ct.Cases = make([]CompiledCase, len(shape.Variants))
		for i, v := range shape.Variants {
			ct.Cases[i] = CompiledCase{Name: v.Name, GoIndex: -1}
		}
		return nil
	case reflect.Struct:
	default:
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "integer or struct of variant pointers")
	}

	enumPath := appendPath(path, shape.Name)
	ct.Cases = make([]CompiledCase, len(shape.Variants))
	for i, v := range shape.Variants {
		goField, found := findGoField(goType, v.Name, -1)
		if !found {
			return errors.FieldMissing(errors.PhaseCompile, enumPath, v.Name)
		}
		if goField.Type.Kind() != reflect.Ptr || goField.Type.Elem().Kind() != reflect.Struct {
			return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(appendPath(enumPath, v.Name)...).
				GoType(goField.Type.String()).
				Detail("variant field must be a pointer to a struct").
				Build()
		}

		payload := goField.Type.Elem()
		fields, err := b.bindFields(v.Fields, payload, appendPath(enumPath, v.Name))
		if err != nil {
			return err
		}

		ct.Cases[i] = CompiledCase{
			Name:    v.Name,
			Payload: payload,
			Fields:  fields,
			GoIndex: goField.Index[0],
		}
	}
	return nil
}

// findGoField matches by: 1) borsh:"name" tag, 2) case-insensitive,
// 3) snake_case to CamelCase. Positional names ("0", "1", ...) bind the
// position-th exported field when no other rule matches.
func findGoField(goType reflect.Type, name string, position int) (reflect.StructField, bool) {
	var exported []reflect.StructField
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}

		if tag := field.Tag.Get("borsh"); tag != "" {
			if tag == "-" {
				continue
			}
			if tag == name {
				return field, true
			}
		}
		exported = append(exported, field)
	}

	for _, field := range exported {
		if field.Tag.Get("borsh") != "" {
			continue
		}
		if strings.EqualFold(field.Name, name) {
			return field, true
		}
		if strings.EqualFold(field.Name, strings.ReplaceAll(name, "_", "")) {
			return field, true
		}
	}

	if idx, err := strconv.Atoi(name); err == nil && position >= 0 && idx == position && idx < len(exported) {
		return exported[idx], true
	}
	return reflect.StructField{}, false
}

func appendPath(path []string, elem string) []string {
	if elem == "" {
		return path
	}
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}
