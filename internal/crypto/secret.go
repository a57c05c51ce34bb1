package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	secretChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	MinSecretLength = 32
	MaxSecretLength = 256
)

var (
	ErrSecretTooShort = errors.New("secret length must be at least 32")
	ErrSecretTooLong  = errors.New("secret length must be at most 256")
)

// GenerateSecret creates a random URL-safe string suitable as a JWT signing secret.
func GenerateSecret(length int) (string, error) {
	if length < MinSecretLength {
		return "", ErrSecretTooShort
	}
	if length > MaxSecretLength {
		return "", ErrSecretTooLong
	}

	result := make([]byte, length)
	for i := range result {
		ch, err := randChar(secretChars)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	return string(result), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
