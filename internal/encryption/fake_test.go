package encryption

import (
	"bytes"
	"strings"
	"testing"

	"swipecam/internal/config"
)

func TestFakeEncryptor_RoundTrip(t *testing.T) {
	e := NewFakeEncryptor()

	var sealed bytes.Buffer
	if err := e.Encrypt(strings.NewReader("photo bytes"), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if sealed.String() == "photo bytes" {
		t.Fatal("sealed output equals plaintext")
	}

	dec, err := e.Unlock("anything")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var plain bytes.Buffer
	if err := dec.Decrypt(&sealed, &plain); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plain.String() != "photo bytes" {
		t.Errorf("Decrypt() = %q, want %q", plain.String(), "photo bytes")
	}
}

func TestFakeEncryptor_ChecksPassphraseAfterSetup(t *testing.T) {
	e := NewFakeEncryptor()
	if err := e.Setup("secret"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := e.Unlock("nope"); err == nil {
		t.Error("Unlock() with wrong passphrase expected error, got nil")
	}
	if _, err := e.Unlock("secret"); err != nil {
		t.Errorf("Unlock() with right passphrase error = %v", err)
	}
}

func TestFakeEncryptor_DecryptRejectsForeignData(t *testing.T) {
	dec, _ := NewFakeEncryptor().Unlock("")
	var out bytes.Buffer
	if err := dec.Decrypt(strings.NewReader("plain jpeg data"), &out); err == nil {
		t.Error("Decrypt() of unmarked data expected error, got nil")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		typ     string
		wantNil bool
		wantErr bool
	}{
		{typ: "", wantNil: true},
		{typ: "none", wantNil: true},
		{typ: "age"},
		{typ: "test"},
		{typ: "rot13", wantNil: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(config.EncryptionConfig{
				Type:           tt.typ,
				PublicKeyPath:  "/keys/swipecam.pub",
				PrivateKeyPath: "/keys/swipecam.key",
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewEncryptorFromConfig() nil = %v, wantNil %v", got == nil, tt.wantNil)
			}
		})
	}
}
