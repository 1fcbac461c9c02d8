package cli

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bluzername/telegram-financial-harvester/internal/config"
	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Telegram: config.TelegramConfig{ChannelID: -1002481698957},
		Extract:  config.ExtractConfig{Model: "gpt-4o-mini", MaxTokens: 500, Workers: 4},
		Webhook:  config.WebhookConfig{TimeoutSeconds: 30},
		State: config.StateConfig{
			Backend: "file",
			Path:    filepath.Join(t.TempDir(), "state.json"),
		},
		Log: config.LogConfig{Level: "info"},
	}
}

func TestNewRootCmdRegistersCommands(t *testing.T) {
	cmd := NewRootCmd(testConfig(t), zerolog.Nop())

	for _, want := range []string{"run", "state", "config", "version"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Command %q not registered", want)
		}
	}
}

func TestRunCommandRequiresCredentials(t *testing.T) {
	cmd := NewRootCmd(testConfig(t), zerolog.Nop())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run"})

	err := cmd.Execute()
	if !errors.Is(err, apperrors.ErrMissingCredentials) {
		t.Errorf("Execute error = %v, want ErrMissingCredentials", err)
	}
}

func TestRunCommandRequiresChannel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telegram.ChannelID = 0
	cfg.Credentials.Telegram.APIID = "12345"
	cfg.Credentials.Telegram.APIHash = "abcdef"
	cfg.Credentials.OpenAI.APIKey = "sk-test"

	cmd := NewRootCmd(cfg, zerolog.Nop())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run", "--dry-run"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "no channel configured") {
		t.Errorf("Execute error = %v, want channel configuration error", err)
	}
}

func TestVersionCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCmd(testConfig(t), zerolog.Nop())
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(buf.String(), Version) {
		t.Errorf("Version output = %q, want it to mention %s", buf.String(), Version)
	}
}
