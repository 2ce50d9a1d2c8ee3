package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shineum/reply-composer/internal/config"
	"github.com/shineum/reply-composer/internal/httpserver"
	"github.com/shineum/reply-composer/internal/provider"
	"github.com/shineum/reply-composer/internal/session"
	"github.com/shineum/reply-composer/internal/smtp"
	replytls "github.com/shineum/reply-composer/internal/tls"
)

func serveCmd(a *app) *cobra.Command {
	var providerName string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, if enabled, the SMTP intake listener",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prov, err := selectProvider(cmd.Context(), a.cfg, providerName, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), a.cfg, prov)
		},
	}
	cmd.Flags().StringVar(&providerName, "provider", "",
		"Delivery provider for the send endpoint (stdout, clipboard, mailto, ses, graph, gmail)")
	return cmd
}

// runServe runs the API and the intake listener over one session store until
// ctx is cancelled or either of them fails.
func runServe(ctx context.Context, cfg *config.Config, prov provider.Provider) error {
	tmpl, err := cfg.DefaultTemplate()
	if err != nil {
		return err
	}
	store := session.NewStore(
		session.WithTemplate(tmpl),
		session.WithReplaceAll(cfg.Template.ReplaceAll),
	)

	var tlsConfig *tls.Config
	if cfg.HTTP.TLS || cfg.Intake.Enabled {
		tlsConfig, err = replytls.LoadOrGenerateTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hosts...)
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
	}

	apiConfig := httpserver.Config{
		Sessions: store,
		Provider: prov,
		From:     cfg.Template.From,
		Subject:  cfg.Template.Subject,
		Logger:   slog.Default(),
	}
	if cfg.HTTP.TLS {
		apiConfig.TLSConfig = tlsConfig
	}
	api := httpserver.New(apiConfig)

	slog.Info("starting reply-composer",
		"http_listen", cfg.HTTP.Listen,
		"http_tls", cfg.HTTP.TLS,
		"intake_enabled", cfg.Intake.Enabled,
		"provider", prov.Name(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenAndServe(ctx, cfg.HTTP.Listen)
	})

	if cfg.Intake.Enabled {
		intake := smtp.New(smtp.ServerConfig{
			ListenAddr:     cfg.Intake.Listen,
			Hostname:       cfg.Intake.Hostname,
			Domain:         cfg.Intake.Domain,
			Sink:           store,
			TLSConfig:      tlsConfig,
			AuthUsername:   cfg.Intake.Username,
			AuthPassword:   cfg.Intake.Password,
			MaxMessageSize: cfg.Intake.MaxMessageSize,
		})
		g.Go(func() error {
			return intake.ListenAndServe(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("reply-composer stopped")
	return nil
}
