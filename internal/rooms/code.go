package rooms

import (
	"crypto/rand"
	"math/big"
)

// Join codes avoid 0/O and 1/I so they survive being read out loud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the join code length shown to students.
const CodeLength = 6

// NewJoinCode generates a random join code. Codes are reused across sessions,
// so only one active room may hold a given code at a time.
func NewJoinCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
