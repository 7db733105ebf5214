package registry

import (
	"github.com/wippyai/borsh-roundtrip/codec"
	"github.com/wippyai/borsh-roundtrip/schema"
)

// Profile is a record of text, a 128-bit integer, a float and a sequence.
type Profile struct {
	Name string
	Age  codec.Uint128
	Prob float64
	Data []int32
}

// Hole is a tree node owning at most one child.
type Hole struct {
	Age   uint32
	ID    [2]int16
	Inner *Hole
}

// Count is a payload-less enum bound to its ordinal.
type Count uint8

const (
	CountOne Count = iota
	CountTwo
	CountThree
)

func (c Count) String() string {
	switch c {
	case CountOne:
		return "One"
	case CountTwo:
		return "Two"
	case CountThree:
		return "Three"
	}
	return "Count(?)"
}

// Exists has a payload-less variant and a tuple variant. Exactly one
// pointer is set.
type Exists struct {
	No  *struct{}
	Yes *ExistsYes
}

// ExistsYes is the payload of Exists.Yes: a unit followed by a flag.
type ExistsYes struct {
	Unit struct{}
	Flag bool
}

var (
	ProfileShape = schema.Struct("Profile",
		schema.NewField("name", schema.String()),
		schema.NewField("age", schema.U128()),
		schema.NewField("prob", schema.F64()),
		schema.NewField("data", schema.Sequence(schema.I32())),
	)

	HoleShape = schema.Recursive("Hole", func(self *schema.Shape) *schema.Shape {
		return schema.Struct("Hole",
			schema.NewField("age", schema.U32()),
			schema.NewField("id", schema.Array(schema.I16(), 2)),
			schema.NewField("inner", schema.Option(self)),
		)
	})

	CountShape = schema.Enum("Count",
		schema.NewVariant("One"),
		schema.NewVariant("Two"),
		schema.NewVariant("Three"),
	)

	ExistsShape = schema.Enum("Exists",
		schema.NewVariant("No"),
		schema.NewVariant("Yes", schema.Tuple(schema.Unit(), schema.Bool())...),
	)
)
