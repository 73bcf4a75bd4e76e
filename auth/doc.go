// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential checking behind a pluggable interface.

# Credential Providers

Handlers depend only on CredentialProvider:

	type CredentialProvider interface {
		Authenticate(username, password string) bool
	}

Two implementations ship with the server.

StaticCredentials is the demo allow-list used when no users file is
configured:

	creds := auth.DefaultCredentials() // admin/password123, user/testpass

Both fields must match exactly; there is no case folding, trimming,
rate limiting, or lockout. It exists for demos only.

HashedCredentials reads bcrypt hashes from a YAML users file:

	# users.yaml
	alice: $2a$10$...
	bob: $2a$10$...

	creds, err := auth.LoadHashedCredentials("users.yaml")

HashPassword produces hashes for that file. The server binary exposes it:

	echo -n 's3cret' | go run . -hash-password

# Errors

Check converts a failed Authenticate into ErrInvalidCredentials so handlers
can branch with errors.Is.
*/
package auth
