package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindTypeMismatch,
				Path:   []string{"Hole", "inner", "[some]"},
				GoType: "string",
				Shape:  "u32",
				Detail: "cannot bind",
			},
			contains: []string{"[compile]", "type_mismatch", "Hole.inner.[some]", "Go type string", "shape u32", "cannot bind"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindTrailingBytes,
			},
			contains: []string{"[decode]", "trailing_bytes"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBoundary,
				Kind:   KindAllocation,
				Detail: "malloc returned NULL",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[boundary]", "allocation", "malloc returned NULL", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := UnexpectedEOF([]string{"Profile", "name"}, 3, 4, 1)

	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Error("errors.Is should match the sentinel of the same phase and kind")
	}
	if errors.Is(err, ErrTrailingBytes) {
		t.Error("errors.Is should not match a different kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindUnexpectedEOF}) {
		t.Error("Is should not match a different phase")
	}

	wrapped := fmt.Errorf("check case 0: %w", err)
	if !errors.Is(wrapped, ErrUnexpectedEOF) {
		t.Error("errors.Is should see through fmt wrapping")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	err := fmt.Errorf("outer: %w", TrailingBytes(3, 4))
	if got := KindOf(err); got != KindTrailingBytes {
		t.Errorf("KindOf = %q, want %q", got, KindTrailingBytes)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCompile, KindTypeMismatch).
		Path("Profile", "age").
		GoType("string").
		Shape("u128").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "Uint128", "string").
		Build()

	if err.Phase != PhaseCompile {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCompile)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "Profile" || err.Path[1] != "age" {
		t.Errorf("Path = %v, want [Profile age]", err.Path)
	}
	if err.GoType != "string" || err.Shape != "u128" {
		t.Errorf("GoType=%v Shape=%v", err.GoType, err.Shape)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected Uint128, got string" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"UnexpectedEOF", UnexpectedEOF(nil, 0, 4, 0), PhaseDecode, KindUnexpectedEOF},
		{"InvalidDiscriminant", InvalidDiscriminant([]string{"Exists"}, 0, 5, 1), PhaseDecode, KindInvalidDiscriminant},
		{"InvalidUTF8", InvalidUTF8(PhaseDecode, []string{"name"}, []byte{0xff, 0xfe}), PhaseDecode, KindInvalidUTF8},
		{"InvalidFloat", InvalidFloat(PhaseEncode, []string{"prob"}, 0x7ff8000000000000), PhaseEncode, KindInvalidFloat},
		{"TrailingBytes", TrailingBytes(2, 3), PhaseDecode, KindTrailingBytes},
		{"UnknownTestCase", UnknownTestCase(9, 7), PhaseRegistry, KindUnknownTestCase},
		{"RoundtripMismatch", RoundtripMismatch("hole-leaf", "-a\n+b"), PhaseRun, KindRoundtripMismatch},
		{"AllocationFailed", AllocationFailed(PhaseBoundary, 1024, nil), PhaseBoundary, KindAllocation},
		{"FieldMissing", FieldMissing(PhaseCompile, []string{"Hole"}, "inner"), PhaseCompile, KindFieldMissing},
		{"Overflow", Overflow(PhaseDecode, nil, 1<<30, "max sequence length"), PhaseDecode, KindOverflow},
		{"NilPointer", NilPointer(PhaseEncode, nil, "*Hole"), PhaseEncode, KindNilPointer},
		{"Unsupported", Unsupported(PhaseCompile, "maps"), PhaseCompile, KindUnsupported},
		{"InvalidInput", InvalidInput(PhaseBoundary, "nil slot"), PhaseBoundary, KindInvalidInput},
		{"NotFound", NotFound(PhaseGuest, "export", "memory"), PhaseGuest, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	t.Run("TrailingBytes detail", func(t *testing.T) {
		err := TrailingBytes(29, 30)
		if err.Value != 1 {
			t.Errorf("Value = %v, want 1", err.Value)
		}
		if !strings.Contains(err.Detail, "consumed 29 of 30") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("InvalidUTF8 preview is bounded", func(t *testing.T) {
		data := make([]byte, 100)
		for i := range data {
			data[i] = 0xff
		}
		err := InvalidUTF8(PhaseDecode, nil, data)
		if strings.Count(err.Detail, "ff") != 32 {
			t.Errorf("preview not truncated to 32 bytes: %q", err.Detail)
		}
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("wasm trap")
	err := Wrap(PhaseGuest, KindAborted, cause, "call roundtrip_test_case")
	if !errors.Is(err, cause) {
		t.Error("Wrap should keep the cause reachable")
	}
	if !strings.Contains(err.Error(), "wasm trap") {
		t.Errorf("message %q misses cause", err.Error())
	}
}
