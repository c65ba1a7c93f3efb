package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.ActivationTokenTTL != 2880*time.Minute {
		t.Errorf("ActivationTokenTTL = %v, want %v", cfg.ActivationTokenTTL, 2880*time.Minute)
	}
	if cfg.AutoActivateUser {
		t.Error("AutoActivateUser should default to false")
	}
	if !cfg.EmailService {
		t.Error("EmailService should default to true")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.VideoMinWidth != 1280 || cfg.VideoMinHeight != 720 {
		t.Errorf("video minimums = %dx%d, want 1280x720", cfg.VideoMinWidth, cfg.VideoMinHeight)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOMAD_PORT", "9999")
	t.Setenv("NOMAD_AUTO_ACTIVATE_USER", "true")
	t.Setenv("NOMAD_EMAIL_SERVICE", "false")
	t.Setenv("NOMAD_SESSION_MINUTES", "10")
	t.Setenv("NOMAD_SESSION_RENEW_ON_USE", "false")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9999")
	}
	if !cfg.AutoActivateUser {
		t.Error("AutoActivateUser should be true")
	}
	if cfg.EmailService {
		t.Error("EmailService should be false")
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Errorf("SessionTTL = %v, want 10m", cfg.SessionTTL)
	}
	if cfg.RenewSessionOnUse {
		t.Error("RenewSessionOnUse should be false")
	}
}

func TestEnvBoolBadValueFallsBack(t *testing.T) {
	t.Setenv("NOMAD_EMAIL_SERVICE", "not-a-bool")

	cfg := Load()
	if !cfg.EmailService {
		t.Error("unparseable bool should fall back to default")
	}
}
