// Package journal parses journal service flags and composes the HTTP API
// entrypoint.
package journal

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"

	entrypoint "github.com/mirajournal/mira/internal/platform/cmd"
	"github.com/mirajournal/mira/internal/platform/timeouts"
	journalapp "github.com/mirajournal/mira/internal/services/journal/app"
	journaldomain "github.com/mirajournal/mira/internal/services/journal/domain"
	journalsqlite "github.com/mirajournal/mira/internal/services/journal/storage/sqlite"
	reminderapp "github.com/mirajournal/mira/internal/services/reminder/app"
	"github.com/mirajournal/mira/internal/services/reminder/calendar"
	reminderdomain "github.com/mirajournal/mira/internal/services/reminder/domain"
	"github.com/mirajournal/mira/internal/services/reminder/extract"
	"github.com/mirajournal/mira/internal/services/reminder/history"
	remindersqlite "github.com/mirajournal/mira/internal/services/reminder/storage/sqlite"
	"github.com/mirajournal/mira/internal/services/web/api"
	"github.com/mirajournal/mira/internal/services/web/auth"
)

// Config holds journal service configuration.
type Config struct {
	HTTPAddr           string `env:"MIRA_HTTP_ADDR"             envDefault:":8080"`
	JournalDBPath      string `env:"MIRA_JOURNAL_DB_PATH"       envDefault:"mira-journal.db"`
	ReminderDBPath     string `env:"MIRA_REMINDER_DB_PATH"      envDefault:"mira-reminder.db"`
	OllamaBaseURL      string `env:"MIRA_OLLAMA_BASE_URL"       envDefault:"http://localhost:11434"`
	OllamaModel        string `env:"MIRA_OLLAMA_MODEL"          envDefault:"llama3.2"`
	GoogleClientID     string `env:"MIRA_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"MIRA_GOOGLE_CLIENT_SECRET"`
	JWTSecret          string `env:"MIRA_JWT_SECRET"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.JournalDBPath, "journal-db", cfg.JournalDBPath, "journal SQLite database path")
	fs.StringVar(&cfg.ReminderDBPath, "reminder-db", cfg.ReminderDBPath, "reminder SQLite database path")
	fs.StringVar(&cfg.OllamaBaseURL, "ollama-base-url", cfg.OllamaBaseURL, "Ollama server base URL")
	fs.StringVar(&cfg.OllamaModel, "ollama-model", cfg.OllamaModel, "Ollama extraction model")
	fs.StringVar(&cfg.GoogleClientID, "google-client-id", cfg.GoogleClientID, "Google OAuth client id")
	fs.StringVar(&cfg.GoogleClientSecret, "google-client-secret", cfg.GoogleClientSecret, "Google OAuth client secret")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "API token signing secret")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the journal app and serves the HTTP API until the context ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceJournal, func(ctx context.Context) error {
		journalStore, err := journalsqlite.Open(cfg.JournalDBPath)
		if err != nil {
			return fmt.Errorf("open journal storage: %w", err)
		}
		defer func() {
			if err := journalStore.Close(); err != nil {
				log.Printf("close journal storage: %v", err)
			}
		}()

		reminderStore, err := remindersqlite.Open(cfg.ReminderDBPath)
		if err != nil {
			return fmt.Errorf("open reminder storage: %w", err)
		}
		defer func() {
			if err := reminderStore.Close(); err != nil {
				log.Printf("close reminder storage: %v", err)
			}
		}()

		journals := journaldomain.NewService(journalapp.NewStoreAdapter(journalStore), nil, nil)
		reminders := reminderdomain.NewService(
			reminderapp.NewStoreAdapter(reminderStore, reminderStore),
			extract.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, nil),
			calendar.NewGoogleClient(calendar.GoogleConfig{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
			}),
			history.NewProvider(journalStore, reminderStore),
			nil,
			nil,
		)

		server := api.NewServer(journals, reminders, auth.NewVerifier(cfg.JWTSecret))
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Printf("journal API listening on %s", cfg.HTTPAddr)
			serveErr <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve journal API: %w", err)
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown journal API: %w", err)
			}
			return nil
		}
	})
}
