// Command taskvoice is the voice task assistant's command-line front end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GoCodeAlone/taskvoice/analytics"
	"github.com/GoCodeAlone/taskvoice/assistant"
	"github.com/GoCodeAlone/taskvoice/config"
	"github.com/GoCodeAlone/taskvoice/conversation"
	"github.com/GoCodeAlone/taskvoice/extract"
	"github.com/GoCodeAlone/taskvoice/internal/version"
	"github.com/GoCodeAlone/taskvoice/notify"
	"github.com/GoCodeAlone/taskvoice/provider"
	"github.com/GoCodeAlone/taskvoice/storage"
	"github.com/GoCodeAlone/taskvoice/task"
)

var (
	verbose    bool
	configPath string
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "taskvoice",
	Short: "Voice-driven personal task assistant",
	Long: `taskvoice turns what you say into tasks, tracks time spent on them and
learns when you work best.

Talk to it with "taskvoice say", or manage tasks directly with the other
commands. Without a config file everything runs locally.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cmd.Flags().Changed("config") {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadOrDefault(configPath)
		}
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs, opened from cfg.
type app struct {
	db        *storage.SQLiteAdapter
	tasks     *task.Store
	analytics *analytics.Engine
	convs     *conversation.Store
	notifier  *notify.Service
	assistant *assistant.Assistant
}

func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	path := cfg.Database()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewSQLiteAdapter(path)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		db.Close()
		return nil, err
	}

	engine := analytics.NewEngine(db,
		analytics.WithLogger(logger.Named("analytics")),
		analytics.WithLocation(loc))
	tasks := task.NewStore(db,
		task.WithRecorder(engine),
		task.WithLogger(logger.Named("tasks")))
	convs := conversation.NewStore(db, conversation.WithStoreLogger(logger.Named("conversations")))

	if err := seedMemory(ctx, convs); err != nil {
		db.Close()
		return nil, err
	}

	notifier := notify.NewService(
		notify.WithLogger(logger.Named("notify")),
		notify.WithSpeech(cfg.Notifications.Speak))
	notifier.Subscribe(notify.WriterSink(cmd.OutOrStdout()))

	ext := extract.New(extract.WithProjects(cfg.User.CurrentProjects...))
	proc := processor(ctx, ext)

	return &app{
		db:        db,
		tasks:     tasks,
		analytics: engine,
		convs:     convs,
		notifier:  notifier,
		assistant: assistant.New(tasks, engine, convs, proc,
			assistant.WithNotifier(notifier),
			assistant.WithLogger(logger.Named("assistant")),
			assistant.WithExtractor(ext)),
	}, nil
}

// processor answers locally, or remotely with a local fallback when a
// provider is configured.
func processor(ctx context.Context, ext *extract.Extractor) conversation.Processor {
	local := conversation.NewLocalProcessor(ext, conversation.NewGenerator(nil),
		conversation.WithLocalLogger(logger.Named("local")))
	if !cfg.Remote() {
		return local
	}
	prov, err := provider.New(ctx, cfg.ProviderSettings())
	if err != nil {
		logger.Warn("remote provider unavailable, answering locally",
			zap.String("provider", cfg.Provider.Name), zap.Error(err))
		return local
	}
	remote := conversation.NewRemoteProcessor(prov,
		conversation.WithModel(cfg.Provider.Model),
		conversation.WithTemperature(cfg.Provider.Temperature),
		conversation.WithMaxTokens(cfg.Provider.MaxTokens),
		conversation.WithRemoteLogger(logger.Named("remote")))
	return conversation.NewFallbackProcessor(remote, local, logger.Named("fallback"))
}

// seedMemory fills in the user memory from config the first time round and
// merges newly configured projects afterwards.
func seedMemory(ctx context.Context, convs *conversation.Store) error {
	mem, err := convs.Memory(ctx)
	if err != nil {
		return err
	}
	changed := false
	if mem.Name == "" && cfg.User.Name != "" {
		mem.Name = cfg.User.Name
		changed = true
	}
	for _, p := range cfg.User.CurrentProjects {
		if !slices.Contains(mem.CurrentProjects, p) {
			mem.CurrentProjects = append(mem.CurrentProjects, p)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return convs.SaveMemory(ctx, mem)
}

// Close flushes pending notifications and closes the database.
func (a *app) Close() {
	a.notifier.Close()
	if err := a.db.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
}
