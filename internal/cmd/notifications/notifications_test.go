package notifications

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8088" {
		t.Fatalf("expected default http addr :8088, got %q", cfg.HTTPAddr)
	}
	if cfg.StoragePath != "notifications.db" {
		t.Fatalf("expected default db path, got %q", cfg.StoragePath)
	}
	if cfg.SMTPPort != "587" {
		t.Fatalf("expected default smtp port 587, got %q", cfg.SMTPPort)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("MANGACOLLAB_NOTIFICATIONS_HTTP_ADDR", ":9090")

	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", ":9091"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9091" {
		t.Fatalf("expected http addr flag override :9091, got %q", cfg.HTTPAddr)
	}
}

func TestParseConfigEnvBeforeFlags(t *testing.T) {
	t.Setenv("MANGACOLLAB_NOTIFICATIONS_DB_PATH", "/var/lib/mangacollab/notifications.db")

	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StoragePath != "/var/lib/mangacollab/notifications.db" {
		t.Fatalf("expected env db path, got %q", cfg.StoragePath)
	}
}
