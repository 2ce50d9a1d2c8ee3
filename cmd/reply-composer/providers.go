package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shineum/reply-composer/internal/config"
	"github.com/shineum/reply-composer/internal/provider"
	"github.com/shineum/reply-composer/internal/provider/clipboard"
	"github.com/shineum/reply-composer/internal/provider/gmail"
	"github.com/shineum/reply-composer/internal/provider/graph"
	"github.com/shineum/reply-composer/internal/provider/mailto"
	"github.com/shineum/reply-composer/internal/provider/ses"
	"github.com/shineum/reply-composer/internal/provider/stdout"
)

// selectProvider builds the delivery backend called name, falling back to
// cfg.Provider and then to auto-detection (Graph, SES, Gmail, else stdout).
// stdoutWriter receives the output of the stdout provider.
func selectProvider(ctx context.Context, cfg *config.Config, name string, stdoutWriter io.Writer) (provider.Provider, error) {
	if name == "" {
		name = cfg.Provider
	}

	switch name {
	case "stdout":
		return stdout.NewWithWriter(stdoutWriter), nil

	case "clipboard":
		return clipboard.New(cfg.Clipboard.Mode), nil

	case "mailto":
		return mailto.New(), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, fmt.Errorf("ses provider selected but SES_REGION and SES_SENDER are required")
		}
		return newSES(ctx, cfg)

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, fmt.Errorf("graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET and GRAPH_SENDER are required")
		}
		return newGraph(cfg), nil

	case "gmail":
		if !cfg.GmailConfigured() {
			return nil, fmt.Errorf("gmail provider selected but GMAIL_CREDENTIALS_FILE and GMAIL_TOKEN_FILE are required")
		}
		return newGmail(ctx, cfg)

	case "":
		switch {
		case cfg.GraphConfigured():
			slog.Info("using Microsoft Graph provider (auto-detected)", "sender", cfg.Graph.Sender)
			return newGraph(cfg), nil
		case cfg.SESConfigured():
			slog.Info("using AWS SES provider (auto-detected)", "region", cfg.SES.Region)
			return newSES(ctx, cfg)
		case cfg.GmailConfigured():
			slog.Info("using Gmail provider (auto-detected)", "user", cfg.Gmail.User)
			return newGmail(ctx, cfg)
		}
		slog.Debug("no provider configured, using stdout provider")
		return stdout.NewWithWriter(stdoutWriter), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func newSES(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	p, err := ses.New(ctx, ses.Config{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
		ReplyTo:         cfg.SES.ReplyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ses provider: %w", err)
	}
	return p, nil
}

func newGraph(cfg *config.Config) provider.Provider {
	return graph.New(graph.Config{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Graph.Sender,
		Mode:         cfg.Graph.Mode,
	})
}

func newGmail(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	p, err := gmail.New(ctx, gmail.Config{
		CredentialsFile: cfg.Gmail.CredentialsFile,
		TokenFile:       cfg.Gmail.TokenFile,
		User:            cfg.Gmail.User,
		Mode:            cfg.Gmail.Mode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail provider: %w", err)
	}
	return p, nil
}
