package lobby

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet deliberately excludes visually ambiguous characters
// (0/O, 1/I/L) so operators can read a room code aloud over voice chat.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const codeLength = 6

// generateCode produces a short, human-typeable room code seeded from
// crypto/rand rather than a clock-seeded math/rand generator: this is a
// network-facing identifier handed to untrusted clients, not an
// in-process heuristic weight, so a predictable seed is not acceptable
// here.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating room code: %v", err)
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
