package keypad

import (
	"bytes"
	"crypto/subtle"
	"strings"
)

// MatchMode selects how an entered code is compared with the stored one.
type MatchMode int

const (
	// MatchStrict requires equal length and content, compared in constant
	// time.
	MatchStrict MatchMode = iota
	// MatchPrefix accepts when both codes agree up to the end of the
	// shorter one. A proper prefix of the stored code passes.
	MatchPrefix
)

// ParseMatchMode falls back to MatchStrict for anything but "prefix".
func ParseMatchMode(s string) MatchMode {
	if strings.EqualFold(strings.TrimSpace(s), "prefix") {
		return MatchPrefix
	}
	return MatchStrict
}

func (m MatchMode) String() string {
	if m == MatchPrefix {
		return "prefix"
	}
	return "strict"
}

func (m MatchMode) Verify(entered, correct []byte) bool {
	if m == MatchPrefix {
		return VerifyPrefix(entered, correct)
	}
	return VerifyStrict(entered, correct)
}

// VerifyPrefix compares a and b up to the first null in either.
func VerifyPrefix(a, b []byte) bool {
	a, b = untilNull(a), untilNull(b)
	n := min(len(a), len(b))
	return bytes.Equal(a[:n], b[:n])
}

// VerifyStrict compares a and b up to their terminators in constant time.
// An empty stored code never matches.
func VerifyStrict(entered, correct []byte) bool {
	entered, correct = untilNull(entered), untilNull(correct)
	if len(correct) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(entered, correct) == 1
}

func untilNull(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
