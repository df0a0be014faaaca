package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/auth"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/config"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/kv"
	"github.com/mmcdole/suasor/internal/logging"
	"github.com/mmcdole/suasor/internal/state"
)

// commandContext lazily builds the shared dependencies of a command run
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	appOnce sync.Once
	app     *app
	appErr  error
}

// app holds everything a command needs to talk to the server
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	kv      *kv.Store
	session *auth.Session
	client  *api.Client

	closers []io.Closer
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configDir() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configDir())
		if err != nil {
			c.configErr = fmt.Errorf("failed to load config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureApp wires config, logging, the KV store, the session and the API client
func (c *commandContext) ensureApp() (*app, error) {
	c.appOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.appErr = err
			return
		}
		a := &app{cfg: cfg}

		logger, closer, err := logging.Setup(cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger = logging.Discard()
		} else {
			a.closers = append(a.closers, closer)
		}
		slog.SetDefault(logger)
		a.logger = logger

		store, err := kv.Open(cfg.Storage.Dir)
		if err != nil {
			c.appErr = fmt.Errorf("failed to open storage: %w", err)
			a.close()
			return
		}
		a.kv = store
		a.closers = append(a.closers, store)

		apiCfg := api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}
		base := api.New(apiCfg, api.WithLogger(logger))
		a.session = auth.NewSession(base, store, logger)
		a.client = api.New(apiCfg, api.WithLogger(logger), api.WithAuthenticator(a.session))

		logger.Info("starting suasor", "version", Version, "api", cfg.API.BaseURL)
		c.app = a
	})
	return c.app, c.appErr
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.close()
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// storeOptions are the options shared by every domain store
func (a *app) storeOptions() state.Options {
	return state.Options{
		Cache: cache.Config{
			TTL:        a.cfg.Cache.TTL,
			MaxEntries: a.cfg.Cache.MaxEntries,
		},
		SuccessDismiss: a.cfg.UI.SuccessDismiss,
		Logger:         a.logger,
	}
}

// requireLogin fails unless a session is stored
func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("%w: run `suasor login` first", domain.ErrNotAuthenticated)
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// storeError turns a store's recorded error into a command error
func storeError[S any](st *state.Store[S]) error {
	if info := st.State().Error; info != nil {
		return *info
	}
	return nil
}
