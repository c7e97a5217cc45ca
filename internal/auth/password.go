package auth

import (
	"crypto/rand"
	"math"
)

// GeneratedPasswordLen gives roughly 95 bits of entropy over passwordChars.
const GeneratedPasswordLen = 16

var passwordChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// GeneratePassword returns a random alphanumeric password of length characters.
// Bytes that would bias the distribution are rejected and redrawn.
func GeneratePassword(length int) string {
	if length <= 0 {
		return ""
	}

	n := len(passwordChars)
	maxrb := math.MaxUint8 - (math.MaxUint8+1)%n
	out := make([]byte, length)
	buf := make([]byte, length+length/4)

	for i := 0; i < length; {
		if _, err := rand.Read(buf); err != nil {
			panic("auth: failed to read random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) > maxrb {
				continue
			}

			out[i] = passwordChars[int(b)%n]
			i++

			if i == length {
				break
			}
		}
	}

	return string(out)
}
