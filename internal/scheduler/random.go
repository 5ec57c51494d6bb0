package scheduler

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Random yields uniform integers in [0, n). Implementations must be safe
// for concurrent use; one instance is shared by every request.
type Random interface {
	Intn(n int) (int, error)
}

// CryptoRandom draws from crypto/rand.
type CryptoRandom struct{}

func (CryptoRandom) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("random: n must be positive")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
