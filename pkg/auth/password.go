package auth

import "golang.org/x/crypto/bcrypt"

// Hasher is the one-way password hashing capability injected into the
// accounts service.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher. A cost of 0 uses the library
// default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
