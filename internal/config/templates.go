package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Telegram Financial Harvester Configuration

[telegram]
# Target channel ID to harvest (negative for supergroups/channels)
channel_id = 0

[extract]
# LLM model used for signal extraction
model = "gpt-4o-mini"
# Maximum completion tokens per extraction call
max_tokens = 300
# Concurrent extraction workers (1 = sequential)
workers = 1

[webhook]
# Delivery request timeout in seconds
timeout_seconds = 30

[state]
# Watermark store backend: "file" or "sqlite"
backend = "file"
# Store path (JSON file or SQLite database; empty = default location)
path = ""

[log]
# Log level: debug, info, warn, error
level = "info"
`

const credentialsTemplate = `# Telegram Financial Harvester Credentials
# WARNING: Keep this file secure! Do not commit to version control.
# All values can also be supplied via environment variables or a .env file:
# API_ID, API_HASH, OPENAI_API_KEY, WEBHOOK_URL, WEBHOOK_API_KEY

[telegram]
api_id = ""
api_hash = ""

[openai]
api_key = ""

[webhook]
url = ""
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	credPath := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		// Use restricted permissions for credentials file
		if err := os.WriteFile(credPath, []byte(credentialsTemplate), 0600); err != nil {
			return fmt.Errorf("writing credentials template: %w", err)
		}
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}
