package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/lifeos/internal/apiclient"
	"github.com/p-blackswan/lifeos/internal/cli"
	"github.com/p-blackswan/lifeos/internal/clientstate"
	"github.com/p-blackswan/lifeos/internal/config"
	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/retry"
	"github.com/p-blackswan/lifeos/internal/workspace"
	"github.com/p-blackswan/lifeos/pkg/kvstore"
)

// app is the state shared by every command. It is built lazily so that
// commands like token work without a reachable server.
type app struct {
	cfg     *config.ClientConfig
	logger  zerolog.Logger
	client  *apiclient.Client
	store   kvstore.Store
	st      *clientstate.State
	ws      *workspace.Workspace
	printer *cli.Printer
	retry   retry.Config
}

func (a *app) setup(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		a.logger = a.logger.Level(level)
	}

	dir, err := homedir.Expand(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("expanding state dir %q: %w", cfg.StateDir, err)
	}
	a.store = kvstore.NewDiskStore(dir)
	a.client = apiclient.New(cfg.ServerURL, cfg.Token, cfg.Timeout, a.logger)
	a.printer = &cli.Printer{Out: color.Output}

	a.retry = retry.DefaultConfig()
	a.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		a.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying")
	}

	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	a.st = clientstate.New(a.store, user)
	a.ws = workspace.New(a.client, a.st, a.logger)
	return nil
}

// currentUser asks the server who the token belongs to and remembers the
// answer. When the server cannot be reached the last known user is used.
func (a *app) currentUser(ctx context.Context) (clientstate.UserContext, error) {
	user, err := retry.DoValue(ctx, a.retry, a.client.Me)
	if err == nil {
		if err := clientstate.SaveCurrentUser(ctx, a.store, user); err != nil {
			a.logger.Warn().Err(err).Msg("failed to save current user")
		}
		return user, nil
	}
	if !errors.Is(err, lerrors.ErrUnavailable) {
		return clientstate.UserContext{}, err
	}

	last, found, lerr := clientstate.LoadCurrentUser(ctx, a.store)
	if lerr != nil || !found {
		return clientstate.UserContext{}, err
	}
	a.logger.Warn().Str("user_id", last.UserID).Msg("server unavailable, using last known user")
	return last, nil
}

// load fetches the user's structures into the workspace.
func (a *app) load(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	return retry.Do(ctx, a.retry, a.ws.Load)
}

// tz is the timezone sent to the server; empty lets the server decide.
func (a *app) tz() string {
	if a.cfg == nil || a.cfg.Timezone == "Local" {
		return ""
	}
	return a.cfg.Timezone
}

// scope returns the structure the sidebar is scoped to, if any.
func (a *app) scope(ctx context.Context) (string, error) {
	mode, err := a.ws.Mode(ctx)
	if err != nil {
		return "", err
	}
	id, _ := mode.StructureID()
	return id, nil
}
