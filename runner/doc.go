// Package runner implements the conformance check behind every boundary
// call.
//
// # Check Flow
//
//  1. Resolve the id in the registry          → UnknownCase
//  2. Decode the input with the case's shape  → Malformed
//  3. Compare with the reference value        → Mismatch
//  4. Re-encode the reference                 → EncodeFailed
//  5. Pass, with the canonical bytes in Report.Output
//
// Every verdict other than Pass is terminal. The runner itself never exits
// the process; the boundary layers decide whether to abort or propagate.
package runner
