package identity

import (
	"crypto/rand"
	"math/big"
)

const (
	pinMin = 100000
	pinMax = 999999
)

// GeneratePin returns a uniform 6-digit confirmation PIN. The low bound keeps
// a leading zero out so the stored int round-trips through display unchanged,
// and 0 stays reserved as the "no PIN" sentinel.
func GeneratePin() int {
	n, err := rand.Int(rand.Reader, big.NewInt(pinMax-pinMin+1))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return pinMin + int(n.Int64())
}
