package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/notify"
)

const (
	ConfigNotificationPermission = "notification_permission"
	ConfigRolloverPolicy         = "rollover_policy"
)

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	value = strings.TrimSpace(value)
	if err := validateConfig(key, value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.ToLower(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func validateConfig(key, value string) error {
	switch key {
	case ConfigNotificationPermission:
		_, err := notify.ParsePermission(value)
		return err
	case ConfigRolloverPolicy:
		_, err := ledger.ParseRolloverPolicy(value)
		return err
	}
	return fmt.Errorf("unknown config key %q", key)
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// Settings are the user-level options that shape a ledger session.
type Settings struct {
	Permission notify.Permission
	Rollover   ledger.RolloverPolicy
}

func LoadSettings(db *sql.DB) (Settings, error) {
	cfg, err := ListConfig(db)
	if err != nil {
		return Settings{}, err
	}
	perm, err := notify.ParsePermission(cfg[ConfigNotificationPermission])
	if err != nil {
		return Settings{}, err
	}
	policy, err := ledger.ParseRolloverPolicy(cfg[ConfigRolloverPolicy])
	if err != nil {
		return Settings{}, err
	}
	return Settings{Permission: perm, Rollover: policy}, nil
}
