package photo

import "io"

// Encryptor encrypts blobs at rest. Encryption needs only the public key;
// decryption needs the passphrase-protected private key, unlocked once per
// session into a DecryptionContext.
type Encryptor interface {
	// Setup generates a key pair and protects the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock returns a DecryptionContext, or an error for a wrong passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
