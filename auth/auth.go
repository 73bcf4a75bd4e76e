// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyUsersFile     = errors.New("users file has no entries")
)

// CredentialProvider checks a username/password pair
type CredentialProvider interface {
	Authenticate(username, password string) bool
}

// StaticCredentials is a fixed in-memory allow-list of plain-text passwords.
// It is a demo placeholder: no rate limiting, no lockout, no hashing.
type StaticCredentials map[string]string

// DefaultCredentials returns the demo allow-list
func DefaultCredentials() StaticCredentials {
	return StaticCredentials{
		"admin": "password123",
		"user":  "testpass",
	}
}

// Authenticate requires an exact match of both fields
func (c StaticCredentials) Authenticate(username, password string) bool {
	want, ok := c[username]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}

// HashedCredentials maps usernames to bcrypt hashes
type HashedCredentials map[string]string

// LoadHashedCredentials reads a YAML file of "username: bcrypt-hash" pairs
func LoadHashedCredentials(path string) (HashedCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var users map[string]string
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrEmptyUsersFile
	}

	return HashedCredentials(users), nil
}

// Authenticate compares the password against the stored bcrypt hash
func (c HashedCredentials) Authenticate(username, password string) bool {
	hash, ok := c[username]
	if !ok || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword returns a bcrypt hash suitable for a users file
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// HashFromReader hashes the first line of r. Backs the -hash-password flag,
// which reads the password from stdin so it stays out of shell history.
func HashFromReader(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return HashPassword(strings.TrimRight(line, "\r\n"))
}

// Check wraps a provider call into an error for handlers
func Check(p CredentialProvider, username, password string) error {
	if !p.Authenticate(username, password) {
		return ErrInvalidCredentials
	}
	return nil
}
