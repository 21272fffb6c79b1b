package testutil

import (
	"swipecam/internal/encryption"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() *encryption.FakeEncryptor {
	return encryption.NewFakeEncryptor()
}
