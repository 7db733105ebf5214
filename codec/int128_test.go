package codec

import "testing"

func TestInt128String(t *testing.T) {
	tests := []struct {
		name  string
		value interface{ String() string }
		want  string
	}{
		{"u128 small", U128(699), "699"},
		{"u128 max", Uint128{Lo: ^uint64(0), Hi: ^uint64(0)}, "340282366920938463463374607431768211455"},
		{"u128 high word", Uint128{Hi: 1}, "18446744073709551616"},
		{"i128 minus one", I128(-1), "-1"},
		{"i128 min", Int128{Hi: -1 << 63}, "-170141183460469231731687303715884105728"},
		{"i128 positive", I128(541212312321534534), "541212312321534534"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}
