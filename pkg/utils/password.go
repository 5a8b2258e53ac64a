package utils

import "golang.org/x/crypto/bcrypt"

// BcryptHasher bcrypt 实现；Cost 为 0 时用 bcrypt.DefaultCost
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(pw string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hashed, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
