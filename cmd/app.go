package cmd

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/chat"
	"github.com/iksnae/careertrack/internal/config"
	"github.com/iksnae/careertrack/internal/exchange"
	"github.com/spf13/cobra"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// app is what every command needs: configuration, the history substrate and
// the notification side channel. db is nil when history is kept in memory.
type app struct {
	cfg      *config.Config
	dbPath   string
	db       *sql.DB
	kv       internal.KVStore
	notifier internal.Notifier
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// openApp loads the configuration and opens the history database.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !verbose {
		internal.SetLogLevel(internal.ParseLogLevel(cfg.Logging.Level))
	}

	a := &app{
		cfg:      cfg,
		notifier: internal.NewTerminalNotifier(cmd.ErrOrStderr()),
	}
	if noHistory {
		a.kv = internal.NewMemoryKV()
		return a, nil
	}

	a.dbPath = cfg.Storage.DBPath
	if dbPath != "" {
		a.dbPath = internal.ExpandPath(dbPath)
	}
	db, err := internal.OpenDatabase(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	internal.LogDebug("Using history database %s", a.dbPath)

	a.db = db
	a.kv = internal.NewSQLiteKV(db)
	return a, nil
}

func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		internal.LogWarn("Failed to close database: %v", err)
	}
}

func (a *app) clientOptions() []exchange.Option {
	return []exchange.Option{
		exchange.WithHTTPClient(a.cfg.HTTPClient()),
		exchange.WithLogger(internal.Logger()),
	}
}

func (a *app) store(key string, active *internal.ActiveSession) *internal.SessionStore {
	return internal.NewSessionStore(a.kv, key, active, internal.WithRetention(a.cfg.Retention()))
}

// tool resolves a --tool value to its chat definition.
func (a *app) tool(name string) (chat.Tool, error) {
	switch name {
	case "pdf":
		return chat.PDFTool(exchange.NewPDFClient(a.cfg.Endpoints.PDF, a.clientOptions()...)), nil
	case "repo", "github":
		return chat.RepoTool(exchange.NewRepoClient(a.cfg.Endpoints.Repo, a.clientOptions()...)), nil
	default:
		return chat.Tool{}, fmt.Errorf("unknown tool: %s (supported: pdf, repo)", name)
	}
}

// controller builds a controller for the named tool over its own store.
func (a *app) controller(name string) (*chat.Controller, error) {
	tool, err := a.tool(name)
	if err != nil {
		return nil, err
	}
	store := a.store(tool.StorageKey, internal.NewActiveSession())
	return chat.NewController(tool, store, chat.WithNotifier(a.notifier)), nil
}

// historyKey maps a --tool value to its storage key.
func historyKey(name string) (string, error) {
	switch name {
	case "pdf":
		return internal.PDFHistoryKey, nil
	case "repo", "github":
		return internal.RepoHistoryKey, nil
	default:
		return "", fmt.Errorf("unknown tool: %s (supported: pdf, repo)", name)
	}
}

// rejectInput shows a validation failure as a notification and returns it.
func rejectInput(cmd *cobra.Command, err error) error {
	internal.NewTerminalNotifier(cmd.ErrOrStderr()).Notify(internal.Notification{
		Title:       "Invalid input",
		Description: err.Error(),
		Variant:     internal.VariantDestructive,
	})
	return err
}
