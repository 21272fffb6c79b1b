package encryption

import (
	"fmt"

	"swipecam/internal/config"
	"swipecam/internal/photo"
)

// NewEncryptorFromConfig returns the configured Encryptor, or nil when
// encryption is off.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (photo.Encryptor, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewFakeEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
