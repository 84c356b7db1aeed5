package session

import "crypto/rand"

const keyLength = 64

var alph = []byte("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Largest multiple of len(alph) that fits in a byte.
// Bytes at or above it are discarded to keep the distribution uniform.
var keyCeil = 256 - 256%len(alph)

func generateKey(length int) string {
	var (
		k   = make([]byte, 0, length)
		buf = make([]byte, length)
	)

	for len(k) < length {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}

		for _, b := range buf {
			if int(b) >= keyCeil {
				continue
			}

			k = append(k, alph[int(b)%len(alph)])
			if len(k) == length {
				break
			}
		}
	}

	return string(k)
}
