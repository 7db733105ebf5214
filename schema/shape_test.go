package schema

import (
	"errors"
	"strings"
	"testing"

	rerrors "github.com/wippyai/borsh-roundtrip/errors"
)

func holeShape() *Shape {
	return Recursive("Hole", func(self *Shape) *Shape {
		return Struct("Hole",
			NewField("age", U32()),
			NewField("id", Array(I16(), 2)),
			NewField("inner", Option(self)),
		)
	})
}

func TestKind(t *testing.T) {
	tests := []struct {
		kind      Kind
		name      string
		size      int
		primitive bool
		integer   bool
		signed    bool
	}{
		{KindBool, "bool", 1, true, false, false},
		{KindU8, "u8", 1, true, true, false},
		{KindU128, "u128", 16, true, true, false},
		{KindI16, "i16", 2, true, true, true},
		{KindI128, "i128", 16, true, true, true},
		{KindF32, "f32", 4, true, false, false},
		{KindF64, "f64", 8, true, false, false},
		{KindUnit, "()", 0, true, false, false},
		{KindString, "string", -1, false, false, false},
		{KindEnum, "enum", -1, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.kind.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
			if got := tt.kind.IsPrimitive(); got != tt.primitive {
				t.Errorf("IsPrimitive() = %v, want %v", got, tt.primitive)
			}
			if got := tt.kind.IsInteger(); got != tt.integer {
				t.Errorf("IsInteger() = %v, want %v", got, tt.integer)
			}
			if got := tt.kind.IsSigned(); got != tt.signed {
				t.Errorf("IsSigned() = %v, want %v", got, tt.signed)
			}
		})
	}

	if got := Kind(200).String(); got != "unknown" {
		t.Errorf("Kind(200).String() = %q", got)
	}
}

func TestRecursiveTiesKnot(t *testing.T) {
	hole := holeShape()
	if hole.Kind != KindStruct || hole.Name != "Hole" {
		t.Fatalf("unexpected shape %+v", hole)
	}
	inner := hole.Fields[2].Shape
	if inner.Kind != KindOption {
		t.Fatalf("inner kind = %v, want option", inner.Kind)
	}
	if inner.Elem != hole {
		t.Error("Option element should point back at the enclosing shape")
	}
}

func TestShapeString(t *testing.T) {
	tests := []struct {
		name  string
		shape *Shape
		want  string
	}{
		{"primitive", U128(), "u128"},
		{"array", Array(I16(), 2), "[i16; 2]"},
		{"sequence", Sequence(I32()), "Vec<i32>"},
		{"option", Option(String()), "Option<String>"},
		{"named struct", holeShape(), "Hole"},
		{"anonymous struct", Struct("", NewField("a", U8())), "struct { a: u8 }"},
		{"anonymous enum", Enum("", NewVariant("No"), NewVariant("Yes", Tuple(Unit(), Bool())...)), "enum { No, Yes((), bool) }"},
		{"nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShapeDefinition(t *testing.T) {
	def := holeShape().Definition()
	want := "struct Hole {\n    age: u32,\n    id: [i16; 2],\n    inner: Option<Hole>,\n}\n"
	if def != want {
		t.Errorf("Definition() =\n%s\nwant\n%s", def, want)
	}

	exists := Enum("Exists",
		NewVariant("No"),
		NewVariant("Yes", Tuple(Unit(), Bool())...),
		NewVariant("Named", NewField("flag", Bool())),
	)
	def = exists.Definition()
	for _, s := range []string{"enum Exists {", "    No,", "    Yes((), bool),", "    Named { flag: bool },"} {
		if !strings.Contains(def, s) {
			t.Errorf("Definition() missing %q:\n%s", s, def)
		}
	}

	if got := Sequence(U8()).Definition(); got != "Vec<u8>" {
		t.Errorf("Definition() of unnamed shape = %q", got)
	}
}

func TestMinSize(t *testing.T) {
	profile := Struct("Profile",
		NewField("name", String()),
		NewField("age", U128()),
		NewField("prob", F64()),
		NewField("data", Sequence(I32())),
	)
	tests := []struct {
		name  string
		shape *Shape
		want  int
	}{
		{"unit", Unit(), 0},
		{"profile", profile, 4 + 16 + 8 + 4},
		{"hole", holeShape(), 4 + 2*2 + 1},
		{"unit only enum", Enum("Count", NewVariant("One"), NewVariant("Two")), 1},
		{"payload enum picks smallest", Enum("E", NewVariant("Big", NewField("x", U64())), NewVariant("Small", NewField("y", U8()))), 2},
		{"empty array", Array(U64(), 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.MinSize(); got != tt.want {
				t.Errorf("MinSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := holeShape().Validate(); err != nil {
		t.Errorf("recursive shape through Option: %v", err)
	}

	selfList := Recursive("Tree", func(self *Shape) *Shape {
		return Struct("Tree", NewField("children", Sequence(self)))
	})
	if err := selfList.Validate(); err != nil {
		t.Errorf("recursive shape through Sequence: %v", err)
	}

	direct := Recursive("Loop", func(self *Shape) *Shape {
		return Struct("Loop", NewField("next", self))
	})

	manyVariants := make([]Variant, MaxVariants+1)
	for i := range manyVariants {
		manyVariants[i] = NewVariant("v" + strings.Repeat("x", i))
	}

	bad := []struct {
		name  string
		shape *Shape
		kind  rerrors.Kind
	}{
		{"nil", nil, rerrors.KindNilPointer},
		{"option without elem", &Shape{Kind: KindOption}, rerrors.KindNilPointer},
		{"negative array", Array(U8(), -1), rerrors.KindInvalidData},
		{"empty enum", Enum("Never"), rerrors.KindInvalidData},
		{"too many variants", Enum("Wide", manyVariants...), rerrors.KindInvalidData},
		{"duplicate variant", Enum("Dup", NewVariant("A"), NewVariant("A")), rerrors.KindInvalidData},
		{"duplicate field", Struct("Dup", NewField("a", U8()), NewField("a", U8())), rerrors.KindInvalidData},
		{"direct recursion", direct, rerrors.KindInvalidData},
		{"nil field", Struct("S", NewField("a", nil)), rerrors.KindNilPointer},
	}

	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var se *rerrors.Error
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *errors.Error", err)
			}
			if se.Phase != rerrors.PhaseSchema || se.Kind != tt.kind {
				t.Errorf("got [%s] %s, want [schema] %s", se.Phase, se.Kind, tt.kind)
			}
		})
	}
}

func TestVariantHelpers(t *testing.T) {
	yes := NewVariant("Yes", Tuple(Unit(), Bool())...)
	if !yes.IsTupleVariant() {
		t.Error("positional fields should form a tuple variant")
	}
	if NewVariant("No").IsTupleVariant() {
		t.Error("payload-less variant is not a tuple variant")
	}
	if NewVariant("N", NewField("x", U8())).IsTupleVariant() {
		t.Error("named fields are not a tuple variant")
	}

	if !Enum("Count", NewVariant("One"), NewVariant("Two")).IsUnitOnly() {
		t.Error("payload-less enum should be unit only")
	}
	if Enum("Exists", NewVariant("No"), yes).IsUnitOnly() {
		t.Error("enum with payload is not unit only")
	}
	if U8().IsUnitOnly() {
		t.Error("non-enum is not unit only")
	}
}
