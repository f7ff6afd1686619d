package authenticator

import (
	"crypto/rand"
	"math/big"
)

// maxSalt bounds salts to 250 bits so they fit in a Starknet felt.
var maxSalt = new(big.Int).Lsh(big.NewInt(1), 250)

// SaltGenerator produces the replay protection salt of a signed message.
type SaltGenerator interface {
	Salt() (*big.Int, error)
}

// SaltFunc adapts a function to a SaltGenerator.
type SaltFunc func() (*big.Int, error)

func (f SaltFunc) Salt() (*big.Int, error) { return f() }

// RandomSalt draws salts uniformly below 2^250.
var RandomSalt SaltGenerator = SaltFunc(func() (*big.Int, error) {
	return rand.Int(rand.Reader, maxSalt)
})
