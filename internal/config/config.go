package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. It is loaded once at startup and passed
// into constructors; nothing reads the environment after Load returns.
type Config struct {
	Port      string
	DBPath    string
	MediaRoot string
	LogLevel  string
	LogFormat string

	// Frontend integration: token placeholders are substituted into these
	// URLs when building activation and password-reset emails.
	ActivationURL    string
	PasswordResetURL string

	// Feature flags.
	AutoActivateUser bool
	EmailService     bool

	// Postmark delivery.
	PostmarkToken string
	EmailFrom     string

	// Token lifetimes.
	ActivationTokenTTL time.Duration
	PasswordTokenTTL   time.Duration
	SessionTTL         time.Duration
	RenewSessionOnUse  bool

	// Minimum accepted upload dimensions.
	VideoMinWidth  int64
	VideoMinHeight int64
}

// Load reads configuration from the environment, consulting a .env file if
// one is present in the working directory.
func Load() Config {
	godotenv.Load()

	return Config{
		Port:      env("NOMAD_PORT", "8080"),
		DBPath:    env("NOMAD_DB_PATH", "apinomad.db"),
		MediaRoot: env("NOMAD_MEDIA_ROOT", "media"),
		LogLevel:  env("NOMAD_LOG_LEVEL", "info"),
		LogFormat: env("NOMAD_LOG_FORMAT", "text"),

		ActivationURL:    env("NOMAD_ACTIVATION_URL", "http://localhost:3000/register/activate/{{token}}"),
		PasswordResetURL: env("NOMAD_FORGOT_PASSWORD_URL", "http://localhost:3000/reset-password/{{token}}"),

		AutoActivateUser: envBool("NOMAD_AUTO_ACTIVATE_USER", false),
		EmailService:     envBool("NOMAD_EMAIL_SERVICE", true),

		PostmarkToken: os.Getenv("NOMAD_POSTMARK_TOKEN"),
		EmailFrom:     env("NOMAD_EMAIL_FROM", "noreply@nomadways.eu"),

		ActivationTokenTTL: envMinutes("NOMAD_ACTIVATION_TOKEN_MINUTES", 2880),
		PasswordTokenTTL:   envMinutes("NOMAD_PASSWORD_TOKEN_MINUTES", 2880),
		SessionTTL:         envMinutes("NOMAD_SESSION_MINUTES", 1440),
		RenewSessionOnUse:  envBool("NOMAD_SESSION_RENEW_ON_USE", true),

		VideoMinWidth:  envInt64("NOMAD_VIDEO_MIN_WIDTH", 1280),
		VideoMinHeight: envInt64("NOMAD_VIDEO_MIN_HEIGHT", 720),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envMinutes(key string, fallback int64) time.Duration {
	return time.Duration(envInt64(key, fallback)) * time.Minute
}
