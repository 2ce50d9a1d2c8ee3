package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shineum/reply-composer/internal/compose"
	"github.com/shineum/reply-composer/internal/config"
	"github.com/shineum/reply-composer/internal/parser"
	"github.com/shineum/reply-composer/internal/provider"
	"github.com/shineum/reply-composer/internal/session"
)

type composeOptions struct {
	source       string
	eml          bool
	templateFile string
	templateText string
	only         []string
	exclude      []string
	plain        bool
	dryRun       bool
}

func composeCmd(a *app) *cobra.Command {
	var opts composeOptions
	var providerName string
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Extract addresses from a document and deliver a reply to each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var prov provider.Provider
			if !opts.dryRun {
				var err error
				prov, err = selectProvider(cmd.Context(), a.cfg, providerName, cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}
			return runCompose(cmd.Context(), a.cfg, opts, prov, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", "-",
		"Source document to scan, or - for standard input")
	cmd.Flags().BoolVar(&opts.eml, "eml", false,
		"Treat the source as an RFC 5322 message and scan its body")
	cmd.Flags().StringVar(&opts.templateFile, "template", "",
		"Reply template file ([EMAIL] and [CONTEXT] are substituted)")
	cmd.Flags().StringVar(&opts.templateText, "template-text", "",
		"Reply template given inline; takes precedence over --template")
	cmd.Flags().StringArrayVar(&opts.only, "only", nil,
		"Reply only to this address (repeatable)")
	cmd.Flags().StringArrayVar(&opts.exclude, "exclude", nil,
		"Skip this address (repeatable)")
	cmd.Flags().StringVar(&providerName, "provider", "",
		"Delivery provider (stdout, clipboard, mailto, ses, graph, gmail)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false,
		"Output plain tab-separated values instead of a table")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"Print the generated replies without delivering them")
	return cmd
}

func runCompose(
	ctx context.Context,
	cfg *config.Config,
	opts composeOptions,
	prov provider.Provider,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	doc, err := readSource(opts.source, opts.eml, stdin)
	if err != nil {
		return err
	}
	tmpl, err := resolveTemplate(cfg, opts)
	if err != nil {
		return err
	}

	s := session.New("cli",
		session.WithTemplate(tmpl),
		session.WithReplaceAll(cfg.Template.ReplaceAll),
	)
	s.SetSource(doc)
	found := s.Parse()
	slog.Debug("addresses extracted", "count", len(found))

	applyFilters(s, opts.only, opts.exclude, stderr)

	addresses := s.Addresses()
	if len(addresses) == 0 {
		fmt.Fprintln(stderr, "No email addresses found.")
		return nil
	}

	if opts.plain {
		outputAddressesPlain(s, addresses, stdout)
	} else {
		outputAddressesTable(s, addresses, stdout)
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	var failed int
	for _, addr := range addresses {
		if _, err := s.Generate(addr); err != nil {
			return fmt.Errorf("failed to generate reply for %s: %w", addr, err)
		}
		draft, err := s.Draft(addr)
		if err != nil {
			red.Fprintf(stderr, "✗ %s: %v\n", addr, err)
			failed++
			continue
		}

		if opts.dryRun {
			fmt.Fprintf(stdout, "\n%s\n", draft.ClipboardText())
			continue
		}

		if err := prov.Send(ctx, draft.Message(cfg.Template.From, cfg.Template.Subject)); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			red.Fprintf(stderr, "✗ %s: %v\n", addr, err)
			failed++
			continue
		}
		green.Fprintf(stderr, "✓ %s (%s)\n", addr, prov.Name())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d replies failed", failed, len(addresses))
	}
	return nil
}

func readSource(path string, eml bool, stdin io.Reader) (string, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	if eml {
		return parser.SourceText(raw), nil
	}
	return string(raw), nil
}

func resolveTemplate(cfg *config.Config, opts composeOptions) (string, error) {
	if opts.templateText != "" {
		return opts.templateText, nil
	}
	if opts.templateFile != "" {
		data, err := os.ReadFile(opts.templateFile)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return cfg.DefaultTemplate()
}

// applyFilters narrows the extracted set through Session.Remove. Addresses
// given to --only or --exclude are matched case-insensitively.
func applyFilters(s *session.Session, only, exclude []string, stderr io.Writer) {
	if len(only) > 0 {
		for _, addr := range s.Addresses() {
			if !containsFold(only, addr) {
				s.Remove(addr)
			}
		}
		for _, want := range only {
			if !containsFold(s.Addresses(), want) {
				fmt.Fprintf(stderr, "Warning: --only address not found in source: %s\n", want)
			}
		}
	}
	for _, skip := range exclude {
		removed := false
		for _, addr := range s.Addresses() {
			if strings.EqualFold(addr, skip) {
				removed = s.Remove(addr) || removed
			}
		}
		if !removed {
			fmt.Fprintf(stderr, "Warning: --exclude address not found in source: %s\n", skip)
		}
	}
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

func outputAddressesTable(s *session.Session, addresses []string, stdout io.Writer) {
	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"#", "Address", "Context"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: contextWidth()},
	})
	for i, addr := range addresses {
		tbl.AppendRow(table.Row{i + 1, addr, oneLine(compose.LocateContext(s.Source(), addr))})
	}
	fmt.Fprintln(stdout, tbl.Render())
}

// outputAddressesPlain outputs addresses in plain tab-separated format
func outputAddressesPlain(s *session.Session, addresses []string, stdout io.Writer) {
	fmt.Fprintln(stdout, "Address\tContext")
	for _, addr := range addresses {
		fmt.Fprintf(stdout, "%s\t%s\n", addr, oneLine(compose.LocateContext(s.Source(), addr)))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
