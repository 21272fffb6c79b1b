package encryption

import (
	"bytes"
	"fmt"
	"io"

	"swipecam/internal/photo"
)

// fakeMagic marks data written by FakeEncryptor.
var fakeMagic = []byte("SWCAMFAKE1")

// FakeEncryptor stands in for age in tests: it prepends a fixed marker on
// encrypt and strips it on decrypt, so stored bytes differ from the
// plaintext without any key material. The passphrase set by Setup is
// checked by Unlock.
type FakeEncryptor struct {
	passphrase string
}

var _ photo.Encryptor = (*FakeEncryptor)(nil)

func NewFakeEncryptor() *FakeEncryptor {
	return &FakeEncryptor{}
}

func (e *FakeEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	return nil
}

func (e *FakeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(fakeMagic); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// Unlock accepts any passphrase until Setup has been called.
func (e *FakeEncryptor) Unlock(passphrase string) (photo.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return fakeDecryptionContext{}, nil
}

func (e *FakeEncryptor) IsConfigured() bool { return true }

type fakeDecryptionContext struct{}

func (fakeDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(fakeMagic))
	if _, err := io.ReadFull(r, marker); err != nil {
		return fmt.Errorf("reading marker: %w", err)
	}
	if !bytes.Equal(marker, fakeMagic) {
		return fmt.Errorf("data was not written by FakeEncryptor")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
