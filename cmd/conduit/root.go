package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conduit/internal/api"
	"conduit/internal/config"
	"conduit/internal/output"
	"conduit/internal/repository"
	"conduit/internal/store"
	"conduit/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errReported marks a failure the user has already been told about.
type errReported struct{ err error }

func (e errReported) Error() string { return e.err.Error() }
func (e errReported) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return errReported{err: err}
}

// app is what every command needs, built once the flags are parsed.
type app struct {
	cfgFile string
	verbose bool

	cfg      *config.Config
	logger   *zap.Logger
	printer  *output.Printer
	articles *repository.ArticleRepository
	comments *repository.CommentRepository
	tags     *repository.TagRepository

	store    *store.HybridStore
	storeErr error
	opened   bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "conduit",
		Short: "conduit - a command line client for the Conduit blogging API",
		Long: `conduit reads and writes articles and comments on a Conduit server.

Example usage:
  conduit home                      # Latest articles and popular tags
  conduit article show 7            # One article with its comments
  conduit article create --title T --description D --body B
  conduit comment delete 7 42       # Asks before deleting`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .conduit.yaml)")
	flags.String("api-url", "", "base URL of the Conduit server, e.g. http://localhost:3000")
	flags.Duration("timeout", 0, "deadline for each request (default 10s)")
	flags.String("redis", "", "Redis address for drafts, imports and gesture locks")
	flags.String("badger", "", "BadgerDB directory for draft bodies")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.String("log-level", "", "log level: debug, info, warn, or error (default error)")
	flags.String("log-format", "", "log format: text or json")
	flags.String("color", "auto", "color output: auto, always, or never")

	root.AddCommand(newHomeCmd(a))
	root.AddCommand(newArticleCmd(a))
	root.AddCommand(newCommentCmd(a))
	root.AddCommand(newTagsCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.Log, a.verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	colors, err := output.ResolveColors(cfg.Output.Color, cfg.Output.Colors)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), colors)

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.logger)
	a.articles = repository.NewArticleRepository(client, a.logger)
	a.comments = repository.NewCommentRepository(client, a.logger)
	a.tags = repository.NewTagRepository(client, a.logger)

	a.logger.Debug("configuration loaded",
		zap.String("api", cfg.API.BaseURL),
		zap.Duration("timeout", cfg.API.Timeout),
		zap.String("redis", cfg.Redis.Addr),
	)
	return nil
}

func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// openStore connects to Redis (and Badger when configured) once per run.
// required=false tolerates a missing or unreachable store.
func (a *app) openStore(ctx context.Context, required bool) (*store.HybridStore, error) {
	if !a.opened {
		a.opened = true
		if !a.cfg.Persistent() {
			a.storeErr = errors.New("redis is not configured (set redis.addr, CONDUIT_REDIS_ADDR or --redis)")
		} else {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			a.store, a.storeErr = store.NewHybridStore(ctx, a.cfg.Redis.Addr, a.cfg.Badger.Path)
			cancel()
		}
	}

	if a.storeErr != nil {
		if required {
			return nil, a.storeErr
		}
		if a.cfg.Persistent() {
			a.logger.Warn("drafts and gesture locks disabled", zap.Error(a.storeErr))
		}
		return nil, nil
	}
	return a.store, nil
}

// binding wires the views to the terminal and, when available, to the store.
func (a *app) binding(cmd *cobra.Command, assumeYes bool) *view.Binding {
	opts := []view.Option{
		view.WithTimeout(a.cfg.API.Timeout),
		view.WithLogger(a.logger),
	}

	st, _ := a.openStore(cmd.Context(), false)
	if st != nil {
		opts = append(opts,
			view.WithDrafts(st),
			view.WithGuard(view.ChainGuard{
				view.NewLocalGuard(),
				store.NewGestureLock(st.Redis(), a.logger),
			}),
		)
	}

	confirmer := output.NewPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), assumeYes)
	return view.NewBinding(confirmer, a.printer, opts...)
}

// loadCtx bounds a read issued directly against a repository.
func (a *app) loadCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.API.Timeout)
}

// mutationErr maps the outcome of a gesture to the exit status. A "no" at the
// prompt is a clean exit; failures were already notified by the view.
func (a *app) mutationErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, view.ErrDeclined):
		a.printer.Info("cancelled")
		return nil
	case errors.Is(err, view.ErrBusy):
		a.printer.Warning("the same action is already in progress")
	}
	return reported(err)
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
