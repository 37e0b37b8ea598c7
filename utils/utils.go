package utils

import (
	"github.com/twmb/murmur3"
)

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// HashStrings hashes the sequence ss as a whole. Parts are separated by a zero byte
// so that ("ab", "c") and ("a", "bc") differ.
func HashStrings(ss ...string) uint64 {
	hash := murmur3.New64()
	for i, s := range ss {
		if i > 0 {
			_, _ = hash.Write([]byte{0})
		}
		_, err := hash.Write([]byte(s))
		if err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}
