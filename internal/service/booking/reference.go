package booking

import (
	"math/rand/v2"
	"time"
)

const (
	ReferenceLength   = 6
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewReference draws a booking reference from a generator seeded for this
// call only.
func NewReference() string {
	r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	b := make([]byte, ReferenceLength)
	for i := range b {
		b[i] = referenceAlphabet[r.IntN(len(referenceAlphabet))]
	}
	return string(b)
}

func IsValidReference(s string) bool {
	if len(s) != ReferenceLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
