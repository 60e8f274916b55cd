// Package notifications parses notifications command flags and composes the
// service entrypoint.
package notifications

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/mangacollab/mangacollab/internal/platform/cmd"
	server "github.com/mangacollab/mangacollab/internal/services/notifications/app"
)

// Config holds notifications command configuration.
type Config struct {
	HTTPAddr    string `env:"MANGACOLLAB_NOTIFICATIONS_HTTP_ADDR" envDefault:":8088"`
	StoragePath string `env:"MANGACOLLAB_NOTIFICATIONS_DB_PATH"   envDefault:"notifications.db"`

	AccessTokenIssuer    string `env:"MANGACOLLAB_AUTH_TOKEN_ISSUER"              envDefault:"mangacollab-auth"`
	AccessTokenAudience  string `env:"MANGACOLLAB_NOTIFICATIONS_TOKEN_AUDIENCE"   envDefault:"mangacollab-notifications"`
	AccessTokenPublicKey string `env:"MANGACOLLAB_AUTH_TOKEN_PUBLIC_KEY"`
	InternalToken        string `env:"MANGACOLLAB_INTERNAL_TOKEN"`

	DirectoryBaseURL string `env:"MANGACOLLAB_DIRECTORY_BASE_URL" envDefault:"http://localhost:8081"`
	DirectoryToken   string `env:"MANGACOLLAB_DIRECTORY_TOKEN"`

	SMTPHost     string `env:"MANGACOLLAB_SMTP_HOST"`
	SMTPPort     string `env:"MANGACOLLAB_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"MANGACOLLAB_SMTP_USERNAME"`
	SMTPPassword string `env:"MANGACOLLAB_SMTP_PASSWORD"`
	SMTPFrom     string `env:"MANGACOLLAB_SMTP_FROM"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "notifications HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "db-path", cfg.StoragePath, "notifications SQLite database path")
	fs.StringVar(&cfg.AccessTokenIssuer, "token-issuer", cfg.AccessTokenIssuer, "expected access token issuer")
	fs.StringVar(&cfg.AccessTokenAudience, "token-audience", cfg.AccessTokenAudience, "expected access token audience")
	fs.StringVar(&cfg.AccessTokenPublicKey, "token-public-key", cfg.AccessTokenPublicKey, "base64 Ed25519 access token public key")
	fs.StringVar(&cfg.InternalToken, "internal-token", cfg.InternalToken, "service-to-service bearer token")
	fs.StringVar(&cfg.DirectoryBaseURL, "directory-base-url", cfg.DirectoryBaseURL, "team directory service base URL")
	fs.StringVar(&cfg.DirectoryToken, "directory-token", cfg.DirectoryToken, "team directory bearer token")
	fs.StringVar(&cfg.SMTPHost, "smtp-host", cfg.SMTPHost, "SMTP host, empty disables email delivery")
	fs.StringVar(&cfg.SMTPPort, "smtp-port", cfg.SMTPPort, "SMTP port")
	fs.StringVar(&cfg.SMTPUsername, "smtp-username", cfg.SMTPUsername, "SMTP username")
	fs.StringVar(&cfg.SMTPPassword, "smtp-password", cfg.SMTPPassword, "SMTP password")
	fs.StringVar(&cfg.SMTPFrom, "smtp-from", cfg.SMTPFrom, "email sender address")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the notifications app and serves its HTTP surface.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceNotifications, func(context.Context) error {
		if err := server.Run(ctx, server.RunConfig{
			HTTPAddr:             cfg.HTTPAddr,
			StoragePath:          cfg.StoragePath,
			AccessTokenIssuer:    cfg.AccessTokenIssuer,
			AccessTokenAudience:  cfg.AccessTokenAudience,
			AccessTokenPublicKey: cfg.AccessTokenPublicKey,
			InternalToken:        cfg.InternalToken,
			DirectoryBaseURL:     cfg.DirectoryBaseURL,
			DirectoryToken:       cfg.DirectoryToken,
			SMTPHost:             cfg.SMTPHost,
			SMTPPort:             cfg.SMTPPort,
			SMTPUsername:         cfg.SMTPUsername,
			SMTPPassword:         cfg.SMTPPassword,
			SMTPFrom:             cfg.SMTPFrom,
		}); err != nil {
			return fmt.Errorf("serve notifications: %w", err)
		}
		return nil
	})
}
