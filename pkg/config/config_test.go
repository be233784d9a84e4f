package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SEND_EMAIL", "TRUE")
	t.Setenv("OWNER_EMAIL", "owner@example.com")
	t.Setenv("GMAIL_APP_PASSWORD", "app-pw")
	t.Setenv("NOTIFY_WORKERS", "4")
	t.Setenv("QUEUE_BACKEND", QueueMemory)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.SendEmail {
		t.Errorf("expected SendEmail to be true")
	}
	if cfg.OwnerEmail != "owner@example.com" || cfg.GmailAppPassword != "app-pw" {
		t.Errorf("smtp credentials not loaded: %+v", cfg)
	}
	if cfg.NotifyWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.NotifyWorkers)
	}
	if !cfg.HasSMTP() {
		t.Errorf("expected HasSMTP")
	}
}

func TestLoadConfigRejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"NOTIFY_WORKERS", "abc"},
		{"NOTIFY_WORKERS", "2x"},
		{"QUEUE_SIZE", "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("QUEUE_BACKEND", QueueMemory)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig("")
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should name %s: %v", tt.key, err)
			}
		})
	}
}

func TestLoadConfigFileOverridesEnv(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", QueueMemory)
	t.Setenv("MAILER_WEBHOOK_URL", "https://env.example.com/hook")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "mailer_webhook_url: https://file.example.com/hook\nqueue_size: 7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MailerWebhookURL != "https://file.example.com/hook" {
		t.Errorf("file did not override env: %s", cfg.MailerWebhookURL)
	}
	if cfg.QueueSize != 7 {
		t.Errorf("expected queue size 7, got %d", cfg.QueueSize)
	}
	if cfg.SMTPHost != "smtp.gmail.com" && os.Getenv("SMTP_HOST") == "" {
		t.Errorf("keys absent from the file should keep defaults, got %s", cfg.SMTPHost)
	}
}

func TestLoadConfigRejectsEmptyFile(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", QueueMemory)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for empty config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.QueueBackend = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown queue backend")
	}

	cfg = Default()
	cfg.NotifyWorkers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes"} {
		if !ParseBool(v) {
			t.Errorf("ParseBool(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "nope"} {
		if ParseBool(v) {
			t.Errorf("ParseBool(%q) = true", v)
		}
	}
}

func TestCredentialPresence(t *testing.T) {
	cfg := Default()
	if cfg.HasSMTP() || cfg.HasWhatsApp() || cfg.HasMailerWebhook() || cfg.HasTwilio() {
		t.Fatal("defaults should not report any channel configured")
	}

	cfg.WhatsAppToken = "tok"
	cfg.WhatsAppPhoneID = "123"
	if cfg.HasWhatsApp() {
		t.Fatal("whatsapp needs the owner number too")
	}
	cfg.WhatsAppOwnerNumber = "15550001111"
	if !cfg.HasWhatsApp() {
		t.Fatal("expected whatsapp configured")
	}
}
