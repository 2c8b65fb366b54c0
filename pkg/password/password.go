package password

import (
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum accepted password length
const MinLength = 8

var (
	hasUpper  = regexp.MustCompile(`[A-Z]`)
	hasLower  = regexp.MustCompile(`[a-z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
)

// Hash returns the bcrypt hash of a plaintext password
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the stored bcrypt hash
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Validate checks a password against complexity requirements
func Validate(plain string) error {
	if len(plain) < MinLength {
		return fmt.Errorf("password must be at least %d characters", MinLength)
	}
	if !hasUpper.MatchString(plain) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower.MatchString(plain) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber.MatchString(plain) {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}
