// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

LoadDotEnv may be called first to pull variables from a .env file. Variables
already present in the environment are not overridden.

# Config Fields

  - Port: Server listen port (default: 3318)
  - APIURL: Analysis service base URL
  - APITimeout: Analysis request timeout (default: 30s)
  - StateFile: JSON session file (default: session_state.json)
  - DatabaseURL: Optional database; replaces the state file when set
  - DatabaseType: sqlite (default) or postgres
  - UsersFile: Optional YAML file of bcrypt hashes
  - SecretsFile: YAML secrets file (default: secrets.yaml)
  - LogLevel: debug, info, warn, error (default: info)
  - LogFormat: text or json (default: text)

# CLI Flags

	-p          Server port
	-api        Analysis service base URL
	-timeout    Analysis request timeout
	-state      Session state file
	-d          Database URL
	-t          Database type
	-users      Users file
	-secrets    Secrets file
	-log-level  Log level
	-log-format Log format

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	API_TIMEOUT   → -timeout
	STATE_FILE    → -state
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	USERS_FILE    → -users
	SECRETS_FILE  → -secrets
	LOG_LEVEL     → -log-level
	LOG_FORMAT    → -log-format

CLI flags take precedence over environment variables.

# Analysis Endpoint

The first non-empty value wins:

 1. -api flag
 2. LLAVA_API_URL environment variable
 3. LLAVA_API_URL key in the secrets file
 4. the placeholder ENTER-LLAVA-NGROK-API-URL

The secrets file is flat YAML:

	LLAVA_API_URL: https://example.ngrok.app

A missing secrets file is treated as empty.
*/
package cliparse
