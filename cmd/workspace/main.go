package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/app"
	"github.com/bheem-platform/workspace-cli/internal/credential"
	"github.com/bheem-platform/workspace-cli/internal/localstate"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/meet"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/internal/session"
	imapsource "github.com/bheem-platform/workspace-cli/internal/source/imap"
	"github.com/bheem-platform/workspace-cli/internal/store"
	appsync "github.com/bheem-platform/workspace-cli/internal/sync"
	"github.com/bheem-platform/workspace-cli/internal/theme"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "workspace:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	statePath := flag.String("state", model.DefaultStatePath(), "path to the local state database")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	theme.Apply(cfg.Display.Theme)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logPath := filepath.Join(filepath.Dir(*statePath), "workspace.log")
	logger, logCloser, err := logging.NewFileLogger(logPath, level)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logCloser.Close()

	state, err := localstate.Open(*statePath)
	if err != nil {
		return fmt.Errorf("opening local state: %w", err)
	}
	defer state.Close()

	tokens := api.NewTokenHolder()
	client := api.NewClient(cfg.API.BaseURL, tokens, time.Duration(cfg.API.TimeoutSec)*time.Second)

	ctx := context.Background()
	sessions := session.NewManager(client, tokens, state, logger)
	sessions.Load(ctx)
	if sessions.Authenticated() {
		// Two-phase check: local expiry first, then server-side status.
		sessions.Check(ctx)
	}

	creds := credential.NewStore(credential.SystemKeyring(), state)

	mail := store.NewMailStore(client, logger, cfg.Mail.PageSize)
	drive := store.NewDriveStore(client, state, logger, cfg.Mail.PageSize)
	docs := store.NewDocsStore(client, logger)
	sites := store.NewSitesStore(client, logger)
	search := store.NewSearchStore(client, logger, 20)
	room := meet.NewWaitingRoom(client, logger)

	if cfg.IMAP.Enabled {
		attachExternalMailbox(ctx, cfg, creds, mail, logger)
	}

	poller := appsync.New(mail, sessions, logger)
	poller.SetIntervals(time.Duration(cfg.Mail.UnreadPollSec)*time.Second, 3*time.Second)

	root := app.New(app.Deps{
		Sessions: sessions,
		Poller:   poller,
		Mail:     mail,
		Drive:    drive,
		Docs:     docs,
		Sites:    sites,
		Search:   search,
		Room:     room,
	})

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// attachExternalMailbox wires the optional external IMAP account into
// the mail view. Its password comes from the credential store; without
// one the account is skipped.
func attachExternalMailbox(ctx context.Context, cfg *model.AppConfig, creds *credential.Store, mail *store.MailStore, logger logging.Logger) {
	username, secret, err := creds.Get(ctx)
	if err != nil {
		logger.Warn(ctx, "external mailbox configured but no credential stored", "err", err)
		return
	}
	if cfg.IMAP.Username != "" {
		username = cfg.IMAP.Username
	}
	if creds.Stale(ctx) {
		logger.Warn(ctx, "external mailbox credential past its validation window", "user", username)
	}

	client := imapsource.NewClient(cfg.IMAP.Host, cfg.IMAP.Port, username, secret, cfg.IMAP.TLS)
	mail.AttachExternal(imapsource.NewAccount(client, cfg.Mail.PageSize))
}
