package app

import (
	"context"
	"fmt"

	"vidcollab/api/db"
	"vidcollab/api/internal"
	"vidcollab/api/internal/google"
	"vidcollab/api/internal/service"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/security"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps builds every dependency from the loaded configuration and starts
// the background invite sweeper, which stops with ctx
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	conn, err := db.New(viper.GetString("database.type"), viper.GetString("database.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	s := store.New(conn)
	signer := security.NewSigner(viper.GetString("jwt.secret"), nil)
	broker := google.NewBroker(google.Config{
		ClientID:     viper.GetString("google.client_id"),
		ClientSecret: viper.GetString("google.client_secret"),
		RedirectURL:  viper.GetString("google.redirect_url"),
	})

	var notifier service.Notifier = service.LogNotifier{}
	if viper.GetBool("mail.enabled") {
		notifier = service.NewMailer(
			viper.GetString("mail.host"),
			viper.GetInt("mail.port"),
			viper.GetString("mail.sender_address"),
			viper.GetString("mail.password"),
		)
	}

	frontend := viper.GetString("host.frontend_url")
	folder := viper.GetString("google.folder_name")

	d := &internal.Deps{
		DB:    conn,
		Store: s,
		Accounts: &service.Accounts{
			Store:      s,
			Hasher:     security.New(),
			Tokens:     signer,
			Notifier:   notifier,
			SessionTTL: viper.GetDuration("jwt.session_ttl"),
			InviteTTL:  viper.GetDuration("invite.ttl"),
		},
		Linker: &service.Linker{
			Store:       s,
			OAuth:       broker,
			Broker:      broker,
			Tokens:      signer,
			FolderName:  folder,
			FrontendURL: frontend,
		},
		Review: &service.Review{
			Store:       s,
			Broker:      broker,
			Notifier:    notifier,
			FolderName:  folder,
			FrontendURL: frontend,
		},
		Team: &service.Team{
			Store:       s,
			Notifier:    notifier,
			FrontendURL: frontend,
		},
		MaxUploadSize: viper.GetInt64("upload.max_size"),
		AllowedTypes:  viper.GetStringSlice("upload.allowed_types"),
	}

	service.InviteCleanup(ctx, viper.GetDuration("invite.cleanup_interval"), s, nil)

	zap.L().Debug("Dependencies ready",
		zap.String("database", viper.GetString("database.type")),
		zap.Bool("mail", viper.GetBool("mail.enabled")),
	)

	return d, nil
}
