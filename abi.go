package roundtrip

// PointerSlot is the size of the out-pointer and out-length slots a caller
// passes to roundtrip_test_case in a 32-bit guest.
const PointerSlot = 4
