// Package registry holds the fixed set of conformance cases.
//
// Each case has a dense u8 id, a name, a shape and a reference value:
//
//	ID  Name           Shape    Reference
//	──────────────────────────────────────────────────────────────
//	0   profile-full   Profile  {"ccccc", 541212312321534534, 0.69, [31, 69]}
//	1   profile-empty  Profile  {"", 699, 0.01, []}
//	2   hole-leaf      Hole     {69, [3, 9], None}
//	3   hole-nested    Hole     {1131, [3, 10], Some({1333, [6, 9], None})}
//	4   count-two      Count    Two
//	5   exists-no      Exists   No
//	6   exists-yes     Exists   Yes((), true)
//
// The registry is built once and never mutated.
package registry
