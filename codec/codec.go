package codec

import (
	"reflect"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/schema"
)

var (
	defaultCompiler = NewCompiler()
	defaultEncoder  = NewEncoderWithCompiler(defaultCompiler)
	defaultDecoder  = NewDecoderWithCompiler(defaultCompiler)
)

// Marshal encodes v according to shape. v may be a value or a pointer to one.
func Marshal(shape *schema.Shape, v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, errors.NilPointer(errors.PhaseEncode, nil, "<nil>")
	}
	if rv.Kind() == reflect.Ptr && shape != nil && shape.Kind != schema.KindOption {
		if rv.IsNil() {
			return nil, errors.NilPointer(errors.PhaseEncode, nil, rv.Type().String())
		}
		rv = rv.Elem()
	}

	ct, err := defaultCompiler.Compile(shape, rv.Type())
	if err != nil {
		return nil, err
	}
	return defaultEncoder.Encode(ct, rv)
}

// Unmarshal decodes data into out, a non-nil pointer, and requires every
// byte to be consumed.
func Unmarshal(shape *schema.Shape, data []byte, out any) error {
	consumed, err := DecodePrefix(shape, data, out)
	if err != nil {
		return err
	}
	if consumed != len(data) {
		return errors.TrailingBytes(consumed, len(data))
	}
	return nil
}

// DecodePrefix decodes one value from the start of data into out and
// returns the number of bytes consumed.
func DecodePrefix(shape *schema.Shape, data []byte, out any) (int, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, errors.InvalidInput(errors.PhaseDecode, "output must be a non-nil pointer")
	}

	ct, err := defaultCompiler.Compile(shape, rv.Type().Elem())
	if err != nil {
		return 0, err
	}
	return defaultDecoder.Decode(ct, data, out)
}
