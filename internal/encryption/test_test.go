package encryption

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"
)

func TestTestEncryptor_Setup(t *testing.T) {
	e := &TestEncryptor{}
	if e.IsConfigured() {
		t.Fatal("IsConfigured() = true for zero TestEncryptor")
	}
	if err := e.Setup("pass"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.SetupCalled || !e.IsConfigured() {
		t.Error("Setup() did not configure the encryptor")
	}
	if err := e.Setup("again"); !errors.Is(err, ErrKeysExist) {
		t.Errorf("second Setup() error = %v, want ErrKeysExist", err)
	}
}

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "simple", input: "hello world"},
		{name: "empty", input: ""},
		{name: "binary", input: "\x00\x01\xff"},
	}

	e := NewTestEncryptor()
	dc, err := e.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enc bytes.Buffer
			if err := e.Encrypt(strings.NewReader(tt.input), &enc); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(enc.Bytes(), testHeader) {
				t.Error("ciphertext missing test header")
			}

			var dec bytes.Buffer
			if err := dc.Decrypt(&enc, &dec); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if dec.String() != tt.input {
				t.Errorf("Decrypt() = %q, want %q", dec.String(), tt.input)
			}
		})
	}
}

func TestTestEncryptor_ChecksumsDiffer(t *testing.T) {
	input := "same content"
	var enc bytes.Buffer
	if err := NewTestEncryptor().Encrypt(strings.NewReader(input), &enc); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if sha256.Sum256([]byte(input)) == sha256.Sum256(enc.Bytes()) {
		t.Error("plaintext and ciphertext checksums are equal")
	}
}

func TestTestEncryptor_Passphrase(t *testing.T) {
	e := NewTestEncryptor()
	e.Passphrase = "secret"

	if _, err := e.Unlock("wrong"); err == nil {
		t.Error("Unlock() with wrong passphrase expected error")
	}
	if _, err := e.Unlock("secret"); err != nil {
		t.Errorf("Unlock() error = %v", err)
	}
}

func TestTestDecryptionContext_BadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid header", input: "NOTVALID" + "payload"},
		{name: "truncated header", input: "DRV"},
		{name: "empty input", input: ""},
	}

	dc := &TestDecryptionContext{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := dc.Decrypt(strings.NewReader(tt.input), &out); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}
