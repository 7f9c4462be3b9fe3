package vault

import (
	"bytes"
	"strings"
	"testing"
)

func TestMemoryVault_PutAndGetContent(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	tests := []struct {
		name    string
		key     string
		content string
	}{
		{name: "store and retrieve content", key: "abc123", content: "hello world"},
		{name: "store empty content", key: "empty", content: ""},
		{name: "store large content", key: "large", content: strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := vault.PutContent(tt.key, strings.NewReader(tt.content), int64(len(tt.content))); err != nil {
				t.Fatalf("PutContent() error = %v", err)
			}

			var buf bytes.Buffer
			if err := vault.GetContent(tt.key, &buf); err != nil {
				t.Fatalf("GetContent() error = %v", err)
			}
			if got := buf.String(); got != tt.content {
				t.Errorf("GetContent() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryVault_SizeMismatch(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	if err := vault.PutContent("k", strings.NewReader("short"), 100); err == nil {
		t.Fatal("PutContent() expected size mismatch error")
	}
	if ok, _ := vault.HasContent("k"); ok {
		t.Error("HasContent() = true after failed put")
	}
}

func TestMemoryVault_HasContent(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	ok, err := vault.HasContent("abc")
	if err != nil {
		t.Fatalf("HasContent() error = %v", err)
	}
	if ok {
		t.Error("HasContent() = true before put")
	}

	if err := vault.PutContent("abc", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("PutContent() error = %v", err)
	}

	ok, err = vault.HasContent("abc")
	if err != nil {
		t.Fatalf("HasContent() error = %v", err)
	}
	if !ok {
		t.Error("HasContent() = false after put")
	}
}

func TestMemoryVault_GetContentNotFound(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	var buf bytes.Buffer
	err := vault.GetContent("nonexistent", &buf)
	if err == nil {
		t.Fatal("GetContent() expected error for nonexistent content")
	}
	if !strings.Contains(err.Error(), "content not found") {
		t.Errorf("error = %v, want error containing 'content not found'", err)
	}
}

func TestMemoryVault_Metadata(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	version, err := vault.GetMetadataVersion("host-1", "db")
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetMetadataVersion() = %d before put, want 0", version)
	}

	for i, data := range []string{"snapshot one", "snapshot two"} {
		if err := vault.PutMetadata("host-1", "db", strings.NewReader(data), int64(len(data)), int64(i+1)); err != nil {
			t.Fatalf("PutMetadata() error = %v", err)
		}
	}

	var buf bytes.Buffer
	if err := vault.GetMetadata("host-1", "db", &buf); err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if buf.String() != "snapshot two" {
		t.Errorf("GetMetadata() = %q, want %q", buf.String(), "snapshot two")
	}

	version, err = vault.GetMetadataVersion("host-1", "db")
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("GetMetadataVersion() = %d, want 2", version)
	}

	if err := vault.GetMetadata("host-2", "db", &buf); err == nil {
		t.Error("GetMetadata() expected error for unknown host")
	}
}
