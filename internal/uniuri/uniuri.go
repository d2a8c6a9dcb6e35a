package uniuri

import (
	"crypto/rand"
	"math/big"
)

const (
	// StdLen is a standard length of uniuri string to achieve ~95 bits of entropy.
	StdLen = 16
	// UUIDLen is a length of uniuri string to achieve ~119 bits of entropy.
	UUIDLen = 20
)

// StdChars is the alphabet random strings are drawn from.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// New returns a random string of StdLen characters.
func New() string {
	return NewLen(StdLen)
}

// NewLen returns a random string of length characters from StdChars.
// rand.Int samples uniformly, so there is no modulo bias.
func NewLen(length int) string {
	if length <= 0 {
		return ""
	}

	limit := big.NewInt(int64(len(StdChars)))
	out := make([]byte, length)

	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		out[i] = StdChars[n.Int64()]
	}

	return string(out)
}
