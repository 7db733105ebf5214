package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/wippyai/borsh-roundtrip/codec"
	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/schema"
)

// Case pairs a reference value with the shape it is encoded under.
type Case struct {
	// Value is the reference, held by value, never a pointer.
	Value any
	Shape *schema.Shape
	Name  string
	ID    uint8
}

// GoType returns the Go type decoded values of this case must have.
func (c Case) GoType() reflect.Type {
	return reflect.TypeOf(c.Value)
}

// NewValue returns a pointer to a fresh zero value of the case's Go type,
// ready to decode into.
func (c Case) NewValue() any {
	return reflect.New(c.GoType()).Interface()
}

// Registry is an immutable, dense table of cases indexed by ID.
// Safe for concurrent reads.
type Registry struct {
	cases []Case
}

// New validates cases and builds a registry. IDs must be dense from 0, every
// shape must be well formed, and every reference must encode.
func New(cases ...Case) (*Registry, error) {
	if len(cases) > 256 {
		return nil, errors.Overflow(errors.PhaseRegistry, nil, len(cases), "256 cases addressable by a u8 id")
	}

	compiler := codec.NewCompiler()
	encoder := codec.NewEncoderWithCompiler(compiler)
	names := make(map[string]bool, len(cases))

	for i, c := range cases {
		path := []string{c.Name}
		if int(c.ID) != i {
			return nil, errors.New(errors.PhaseRegistry, errors.KindInvalidData).
				Path(path...).
				Detail("case id %d at position %d, ids must be dense from 0", c.ID, i).
				Build()
		}
		if c.Name == "" || names[c.Name] {
			return nil, errors.InvalidData(errors.PhaseRegistry, path,
				fmt.Sprintf("case %d needs a unique, non-empty name", c.ID))
		}
		names[c.Name] = true

		if c.Value == nil || c.GoType().Kind() == reflect.Ptr {
			return nil, errors.InvalidData(errors.PhaseRegistry, path, "reference must be a non-nil, non-pointer value")
		}
		ct, err := compiler.Compile(c.Shape, c.GoType())
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRegistry, errors.KindTypeMismatch, err,
				fmt.Sprintf("case %d (%s) does not bind to its shape", c.ID, c.Name))
		}
		if _, err := encoder.Encode(ct, reflect.ValueOf(c.Value)); err != nil {
			return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInvalidData, err,
				fmt.Sprintf("case %d (%s) reference does not encode", c.ID, c.Name))
		}
	}

	return &Registry{cases: append([]Case(nil), cases...)}, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := New(builtin()...)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the process-wide registry of built-in cases.
func Default() *Registry {
	return defaultRegistry()
}

// Lookup returns the case with the given id.
func (r *Registry) Lookup(id uint8) (Case, error) {
	if int(id) >= len(r.cases) {
		return Case{}, errors.UnknownTestCase(id, len(r.cases))
	}
	return r.cases[id], nil
}

// Cases returns a copy of all cases in id order.
func (r *Registry) Cases() []Case {
	return append([]Case(nil), r.cases...)
}

func (r *Registry) Len() int {
	return len(r.cases)
}
