package schema

// Kind discriminates the closed set of value shapes.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindF32
	KindF64
	KindUnit
	KindString
	KindArray
	KindSequence
	KindOption
	KindStruct
	KindEnum
)

var kindNames = [...]string{
	KindBool:     "bool",
	KindU8:       "u8",
	KindU16:      "u16",
	KindU32:      "u32",
	KindU64:      "u64",
	KindU128:     "u128",
	KindI8:       "i8",
	KindI16:      "i16",
	KindI32:      "i32",
	KindI64:      "i64",
	KindI128:     "i128",
	KindF32:      "f32",
	KindF64:      "f64",
	KindUnit:     "()",
	KindString:   "string",
	KindArray:    "array",
	KindSequence: "sequence",
	KindOption:   "option",
	KindStruct:   "struct",
	KindEnum:     "enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k has a fixed width and no children.
func (k Kind) IsPrimitive() bool {
	return k <= KindUnit
}

// IsInteger reports whether k is a fixed-width integer.
func (k Kind) IsInteger() bool {
	return k >= KindU8 && k <= KindI128
}

// IsSigned reports whether k is a signed integer.
func (k Kind) IsSigned() bool {
	return k >= KindI8 && k <= KindI128
}

// Size returns the encoded width of a primitive kind, or -1 for
// variable-width and compound kinds.
func (k Kind) Size() int {
	switch k {
	case KindUnit:
		return 0
	case KindBool, KindU8, KindI8:
		return 1
	case KindU16, KindI16:
		return 2
	case KindU32, KindI32, KindF32:
		return 4
	case KindU64, KindI64, KindF64:
		return 8
	case KindU128, KindI128:
		return 16
	default:
		return -1
	}
}
