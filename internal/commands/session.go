package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/config"
	"github.com/cleared-dev/pocketbook/internal/id"
	"github.com/cleared-dev/pocketbook/internal/journal"
	"github.com/cleared-dev/pocketbook/internal/ledger"
	"github.com/cleared-dev/pocketbook/internal/logging"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/store"
	"github.com/cleared-dev/pocketbook/internal/store/memory"
	"github.com/cleared-dev/pocketbook/internal/store/sqlite"
)

const dateLayout = "2006-01-02"

// session is an opened book for the duration of one command.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	log     *slog.Logger
	book    *ledger.Book
	closeFn func() error
}

func openSession(cmd *cobra.Command, dir string) (*session, error) {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("no book at %s: %w", dir, err)
	}
	if err := config.ApplyEnv(cfg, filepath.Join(dir, config.EnvFile)); err != nil {
		return nil, err
	}
	return openWith(cmd, dir, cfg)
}

func openWith(cmd *cobra.Command, dir string, cfg *config.Config) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	ctx := logging.ToContext(cmd.Context(), log)

	var (
		st      store.Store
		closeFn = func() error { return nil }
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("memory storage keeps nothing after this command")
		st = memory.New()
	default:
		path := cfg.Storage.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		st, closeFn = db, db.Close
	}

	mode := journal.DoubleEntry
	if !cfg.Ledger.DoubleEntry {
		mode = journal.SingleEntry
	}
	book := ledger.New(st,
		ledger.WithMode(mode),
		ledger.WithMaxDepth(cfg.Ledger.MaxDepth),
		ledger.WithLogger(log),
	)
	log.Debug("book opened", "dir", dir, "driver", cfg.Storage.Driver, "mode", mode.String())
	return &session{ctx: ctx, cfg: cfg, log: log, book: book, closeFn: closeFn}, nil
}

// withSession opens the book, runs fn and closes the book again.
func withSession(cmd *cobra.Command, dir string, fn func(s *session) error) error {
	s, err := openSession(cmd, dir)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.closeFn(); err != nil && runErr == nil {
		runErr = fmt.Errorf("closing book: %w", err)
	}
	return runErr
}

// resolve finds an account by id, full name or unique short name.
func resolve(chart *accounts.Service, ref string) (model.Account, error) {
	a, ok := chart.Lookup(ref)
	if !ok && id.Valid(ref) {
		norm, _ := id.Parse(ref)
		a, ok = chart.Get(norm)
	}
	if !ok {
		return model.Account{}, fmt.Errorf("%w: account %q", model.ErrUnknownEntity, ref)
	}
	return a, nil
}

// txnRef normalizes a transaction or split identifier typed on the command line.
func txnRef(ref string) (string, error) {
	return id.Parse(strings.TrimSpace(ref))
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// parseWindow turns --from/--to dates into an inclusive window covering
// whole days.
func parseWindow(from, to string) (balance.Window, error) {
	var w balance.Window
	if from != "" {
		start, err := parseDate(from)
		if err != nil {
			return w, err
		}
		w.Start = start
	}
	if to != "" {
		end, err := parseDate(to)
		if err != nil {
			return w, err
		}
		w.End = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return w, nil
}
