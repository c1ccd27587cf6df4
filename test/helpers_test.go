package test

import (
	"crypto/rand"
	"math/big"
)

func randomBelow(limit *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, limit)
}
