package gojabackend

import "unicode/utf16"

// utf16Decode converts a UTF-16 code unit slice (as the vtable's
// NewStringUTF16 / ToStringUTF16 operations carry across the boundary)
// into a Go string. Natus standardizes on UTF-8 at every other boundary
// (spec §9 open question); UTF-16 only exists for callers bridging from
// engines or hosts that hand over UTF-16 natively.
func utf16Decode(units []uint16) string {
	return string(utf16.Decode(units))
}

// utf16Encode converts a Go string to UTF-16 code units.
func utf16Encode(s string) []uint16 {
	return utf16.Encode([]rune(s))
}
