package nutriday

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nickolasww/nutriday/internal/app"
	"github.com/nickolasww/nutriday/internal/config"
	"github.com/nickolasww/nutriday/internal/db"
	"github.com/nickolasww/nutriday/internal/ledger"
	"github.com/nickolasww/nutriday/internal/model"
	"github.com/nickolasww/nutriday/internal/provider/foodlog"
	"github.com/nickolasww/nutriday/internal/provider/nutrition"
	"github.com/nickolasww/nutriday/internal/session"
	"github.com/nickolasww/nutriday/internal/store"
	"github.com/nickolasww/nutriday/pkg/logger"
)

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
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

// appEnv bundles everything a command needs: config, the local store, the
// session, both remote providers, and the ledger wired on top of them.
type appEnv struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *sql.DB
	session *session.Session
	foodlog *foodlog.Client
	ledger  *ledger.Ledger
}

func withApp(run func(*appEnv) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New("nutriday")
	defer func() { _ = log.Sync() }()

	return withDB(func(sqldb *sql.DB) error {
		sess := session.New(sqldb, log)
		httpClient := &http.Client{Timeout: cfg.APITimeout}

		targets := model.DefaultTargets()
		if override, ok, err := store.TargetOverride(sqldb); err != nil {
			return err
		} else if ok {
			targets = override
		}

		foodlogClient := &foodlog.Client{BaseURL: cfg.APIBaseURL, HTTPClient: httpClient, Tokens: sess}
		led := ledger.New(ledger.Options{
			Fetcher:     &nutrition.Client{BaseURL: cfg.APIBaseURL, HTTPClient: httpClient, Tokens: sess},
			Saver:       foodlogClient,
			Credentials: sess,
			Targets:     targets,
			Log:         log,
		})
		logged, err := store.LoggedDates(sqldb)
		if err != nil {
			return err
		}
		led.SeedLoggedDates(logged)

		return run(&appEnv{
			cfg:     cfg,
			log:     log,
			db:      sqldb,
			session: sess,
			foodlog: foodlogClient,
			ledger:  led,
		})
	})
}

func parseDateOrToday(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.ParseInLocation("2006-01-02", value, time.Local); err != nil {
		return "", fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", value)
	}
	return value, nil
}

// parseEntryID accepts either a server id (integer) or a provisional local
// id in the "local:<uuid>" form printed by `nutriday add`.
func parseEntryID(value string) (model.EntryID, error) {
	value = strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(value, "local:"); ok && rest != "" {
		return model.EntryID{Local: rest}, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return model.EntryID{}, fmt.Errorf("invalid entry id %q (expected a server id or local:<uuid>)", value)
	}
	return model.RemoteID(n), nil
}
