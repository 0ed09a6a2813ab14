package platelog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/saadjs/platelog/internal/app"
	"github.com/saadjs/platelog/internal/config"
	"github.com/saadjs/platelog/internal/db"
	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/notify"
	"github.com/saadjs/platelog/internal/provider/predictor"
	"github.com/saadjs/platelog/internal/service"
)

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if p := config.Load().DBPath; p != "" {
		return p, nil
	}
	return app.DefaultDBPath()
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

// session is one command invocation against the persisted ledger.
type session struct {
	db       *sql.DB
	cfg      config.Config
	ledger   *ledger.Ledger
	logger   *log.Logger
	reminded bool
}

// annotationSkipIdle marks commands that reset the idle clock themselves, so
// the session start must not remind about a meal they are about to record.
const annotationSkipIdle = "platelog/skip-idle-check"

// withLedger restores the ledger from the database and runs the session
// start checks before handing it to run.
func withLedger(cmd *cobra.Command, run func(*session) error) error {
	cfg := config.Load()
	return withDB(func(sqldb *sql.DB) error {
		settings, err := service.LoadSettings(sqldb)
		if err != nil {
			return err
		}
		logger := newLogger(cmd)
		gate := &notify.Gate{
			Permission: settings.Permission,
			Sender:     newSender(cmd, cfg),
			Logger:     logger,
		}
		l := ledger.New(ledger.Options{
			Store:         service.NewKVStore(sqldb),
			Notifier:      gate,
			Logger:        logger,
			Rollover:      settings.Rollover,
			IdleThreshold: cfg.IdleThreshold(),
		})
		// A failed restore is logged by the ledger and leaves it empty.
		_ = l.Load()
		s := &session{db: sqldb, cfg: cfg, ledger: l, logger: logger}
		if _, skip := cmd.Annotations[annotationSkipIdle]; skip {
			l.RolloverIfDue()
		} else {
			s.reminded = l.StartSession()
		}
		return run(s)
	})
}

func newLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

func newSender(cmd *cobra.Command, cfg config.Config) notify.Sender {
	if s, ok := notify.ParseCommand(cfg.NotifyCommand); ok {
		return s
	}
	return notify.WriterSender{W: cmd.ErrOrStderr()}
}

func newPredictor(cfg config.Config) *predictor.Client {
	return &predictor.Client{
		BaseURL:     cfg.Predictor.URL,
		HTTPClient:  &http.Client{Timeout: cfg.Predictor.Timeout()},
		Limiter:     rate.NewLimiter(rate.Limit(cfg.Predictor.RPS), cfg.Predictor.Burst),
		AllowedMIME: cfg.UploadAllowedMime,
		MaxBytes:    cfg.UploadMaxBytes(),
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
