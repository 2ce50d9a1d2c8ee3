package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shineum/reply-composer/internal/provider/gmail"
)

func gmailAuthCmd(a *app) *cobra.Command {
	var credentialsFile, tokenFile string
	cmd := &cobra.Command{
		Use:   "gmail-auth",
		Short: "Authorize Gmail access and write the token file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if credentialsFile == "" {
				credentialsFile = a.cfg.Gmail.CredentialsFile
			}
			if tokenFile == "" {
				tokenFile = a.cfg.Gmail.TokenFile
			}
			return runGmailAuth(cmd.Context(), credentialsFile, tokenFile, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&credentialsFile, "credentials", "",
		"OAuth client secret JSON downloaded from the Google Cloud console (default gmail.credentials_file)")
	cmd.Flags().StringVar(&tokenFile, "token", "",
		"Where to write the token (default gmail.token_file)")
	return cmd
}

func runGmailAuth(ctx context.Context, credentialsFile, tokenFile string, stdin io.Reader, stdout io.Writer) error {
	if credentialsFile == "" || tokenFile == "" {
		return fmt.Errorf("both a credentials file and a token file are required")
	}

	cfg, err := gmail.OAuthConfig(credentialsFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Open this link in your browser, approve access, then paste the authorization code:\n\n%s\n\nCode: ",
		gmail.AuthURL(cfg, uuid.NewString()))

	var code string
	if _, err := fmt.Fscan(stdin, &code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	if _, err := gmail.Exchange(ctx, cfg, code, tokenFile); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Token saved to %s\n", tokenFile)
	return nil
}
