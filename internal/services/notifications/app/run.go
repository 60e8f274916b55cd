package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mangacollab/mangacollab/internal/services/notifications/directory"
	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
	"github.com/mangacollab/mangacollab/internal/services/notifications/email"
	"github.com/mangacollab/mangacollab/internal/services/notifications/render"
	"github.com/mangacollab/mangacollab/internal/services/notifications/storage/sqlite"
)

// RunConfig composes the full notifications process from flat settings.
type RunConfig struct {
	HTTPAddr    string
	StoragePath string

	AccessTokenIssuer    string
	AccessTokenAudience  string
	AccessTokenPublicKey string
	InternalToken        string

	DirectoryBaseURL string
	DirectoryToken   string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Run builds the notifications app and serves it until the context ends.
func Run(ctx context.Context, config RunConfig) error {
	if strings.TrimSpace(config.StoragePath) == "" {
		return errors.New("storage path is required")
	}

	store, err := sqlite.Open(config.StoragePath)
	if err != nil {
		return fmt.Errorf("open notification store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close notification store: %v", err)
		}
	}()

	publicKey, err := DecodeAccessTokenPublicKey(config.AccessTokenPublicKey)
	if err != nil {
		return fmt.Errorf("configure access tokens: %w", err)
	}

	adapter := newDomainStoreAdapter(store, store)
	service := domain.NewService(adapter, adapter, nil, nil)

	members, err := directory.NewClient(config.DirectoryBaseURL, config.DirectoryToken, nil)
	if err != nil {
		return fmt.Errorf("init directory client: %w", err)
	}

	mailer, err := newMailerFromConfig(config)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}
	dispatcher := domain.NewDispatcher(service, members, render.New(nil), mailer)

	server, err := NewServer(Config{
		HTTPAddr: config.HTTPAddr,
		AccessTokens: AccessTokenConfig{
			Issuer:   config.AccessTokenIssuer,
			Audience: config.AccessTokenAudience,
			Key:      publicKey,
		},
		InternalToken: config.InternalToken,
	}, service, dispatcher)
	if err != nil {
		return fmt.Errorf("init notifications server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve notifications: %w", err)
	}
	return nil
}

// newMailerFromConfig returns a nil mailer when SMTP is not configured.
// Dispatch then records in-app notifications without sending email.
func newMailerFromConfig(config RunConfig) (domain.Mailer, error) {
	if strings.TrimSpace(config.SMTPHost) == "" {
		log.Printf("smtp host not configured: email delivery disabled")
		return nil, nil
	}
	sender, err := email.NewSMTPSender(email.SMTPConfig{
		Host:     config.SMTPHost,
		Port:     config.SMTPPort,
		Username: config.SMTPUsername,
		Password: config.SMTPPassword,
		From:     config.SMTPFrom,
	})
	if err != nil {
		return nil, err
	}
	return email.NewMailer(sender)
}
