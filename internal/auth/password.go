package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted adaptive digest from the plaintext.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// PasswordMatches compares plaintext against the stored digest in constant
// time with respect to the comparison.
func PasswordMatches(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
