package registry

import "github.com/wippyai/borsh-roundtrip/codec"

// builtin returns the fixed conformance cases. Foreign implementations
// hard-code the same ids, so the order is part of the contract.
func builtin() []Case {
	return []Case{
		{
			ID:    0,
			Name:  "profile-full",
			Shape: ProfileShape,
			Value: Profile{
				Name: "ccccc",
				Age:  codec.U128(541212312321534534),
				Prob: 0.69,
				Data: []int32{31, 69},
			},
		},
		{
			ID:    1,
			Name:  "profile-empty",
			Shape: ProfileShape,
			Value: Profile{
				Name: "",
				Age:  codec.U128(699),
				Prob: 0.01,
				Data: []int32{},
			},
		},
		{
			ID:    2,
			Name:  "hole-leaf",
			Shape: HoleShape,
			Value: Hole{Age: 69, ID: [2]int16{3, 9}},
		},
		{
			ID:    3,
			Name:  "hole-nested",
			Shape: HoleShape,
			Value: Hole{
				Age: 1131,
				ID:  [2]int16{3, 10},
				Inner: &Hole{
					Age: 1333,
					ID:  [2]int16{6, 9},
				},
			},
		},
		{
			ID:    4,
			Name:  "count-two",
			Shape: CountShape,
			Value: CountTwo,
		},
		{
			ID:    5,
			Name:  "exists-no",
			Shape: ExistsShape,
			Value: Exists{No: &struct{}{}},
		},
		{
			ID:    6,
			Name:  "exists-yes",
			Shape: ExistsShape,
			Value: Exists{Yes: &ExistsYes{Flag: true}},
		},
	}
}
