// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStaticCredentials_Authenticate(t *testing.T) {
	creds := DefaultCredentials()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"admin valid", "admin", "password123", true},
		{"user valid", "user", "testpass", true},
		{"wrong password", "admin", "testpass", false},
		{"unknown user", "guest", "password123", false},
		{"username case variation", "Admin", "password123", false},
		{"password case variation", "user", "TestPass", false},
		{"empty username", "", "testpass", false},
		{"empty password", "user", "", false},
		{"both empty", "", "", false},
		{"trailing space", "user ", "testpass", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := creds.Authenticate(tt.username, tt.password); got != tt.want {
				t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	creds := DefaultCredentials()

	if err := Check(creds, "user", "testpass"); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
	if err := Check(creds, "user", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Check() error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestHashedCredentials(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if strings.Contains(hash, "s3cret") {
		t.Fatal("HashPassword() leaked the plain text password")
	}

	path := filepath.Join(t.TempDir(), "users.yaml")
	content := "alice: " + hash + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write users file: %v", err)
	}

	creds, err := LoadHashedCredentials(path)
	if err != nil {
		t.Fatalf("LoadHashedCredentials() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"valid", "alice", "s3cret", true},
		{"wrong password", "alice", "S3cret", false},
		{"unknown user", "bob", "s3cret", false},
		{"empty password", "alice", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := creds.Authenticate(tt.username, tt.password); got != tt.want {
				t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}

func TestLoadHashedCredentials_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadHashedCredentials(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte(""), 0o600)
	if _, err := LoadHashedCredentials(empty); !errors.Is(err, ErrEmptyUsersFile) {
		t.Errorf("expected ErrEmptyUsersFile, got %v", err)
	}

	broken := filepath.Join(dir, "broken.yaml")
	os.WriteFile(broken, []byte("- not\n- a map\n"), 0o600)
	if _, err := LoadHashedCredentials(broken); err == nil {
		t.Error("expected error for non-mapping YAML")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("HashPassword(\"\") should fail")
	}
}

func TestHashFromReader(t *testing.T) {
	hash, err := HashFromReader(strings.NewReader("s3cret\r\nignored\n"))
	if err != nil {
		t.Fatalf("HashFromReader() error = %v", err)
	}
	if !(HashedCredentials{"alice": hash}).Authenticate("alice", "s3cret") {
		t.Error("hash should match the first line without its line ending")
	}

	if _, err := HashFromReader(strings.NewReader("")); err == nil {
		t.Error("empty input should fail")
	}
}
