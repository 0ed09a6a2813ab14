package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/model"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// DoctorReport describes problems found in the persisted ledger keys.
type DoctorReport struct {
	MalformedKeys []string `json:"malformed_keys"`
	TotalsDrift   bool     `json:"totals_drift"`
	BucketDrift   bool     `json:"bucket_drift"`
	RemovedKeys   []string `json:"removed_keys,omitempty"`
	RebuiltTotals bool     `json:"rebuilt_totals,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return len(r.MalformedKeys) == 0 && !r.TotalsDrift && !r.BucketDrift
}

func CreateBackup(dbPath, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(dbPath) == "" {
		return BackupInfo{}, fmt.Errorf("db path is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := copyFile(dbPath, outPath); err != nil {
		return BackupInfo{}, err
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

// DefaultBackupName is platelog-<timestamp>.db.
func DefaultBackupName(now time.Time) string {
	return "platelog-" + now.UTC().Format("20060102-150405") + ".db"
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	if expected, err := os.ReadFile(backupPath + ".sha256"); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".db" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		st, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat backup %s: %w", e.Name(), err)
		}
		checksum := ""
		if b, err := os.ReadFile(path + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: path, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RunDoctor checks that every persisted ledger key decodes and that the
// stored daily totals agree with the stored records. With fix set,
// undecodable keys are dropped and drifting totals are rebuilt from records.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	store := NewKVStore(db)
	report := DoctorReport{MalformedKeys: []string{}}
	targets := map[string]any{
		ledger.KeyProfile:    &model.Profile{},
		ledger.KeyDailyState: &ledger.DailyState{},
		ledger.KeyHistory:    &[]model.MealRecord{},
		ledger.KeyLastMeal:   new(int64),
	}
	keys := []string{ledger.KeyProfile, ledger.KeyDailyState, ledger.KeyHistory, ledger.KeyLastMeal}
	var daily *ledger.DailyState
	for _, key := range keys {
		raw, ok, err := store.Get(key)
		if err != nil {
			return report, err
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, targets[key]); err != nil {
			report.MalformedKeys = append(report.MalformedKeys, key)
			continue
		}
		if key == ledger.KeyDailyState {
			daily = targets[key].(*ledger.DailyState)
		}
	}

	if daily != nil {
		var sum model.Totals
		buckets := map[string]model.Totals{}
		for _, rec := range daily.MealRecords {
			sum.AddRecord(rec)
			b := buckets[string(rec.MealType)]
			b.AddRecord(rec)
			buckets[string(rec.MealType)] = b
		}
		report.TotalsDrift = !totalsClose(sum, daily.DailyTotals)
		var bucketSum model.Totals
		for _, b := range daily.MealTypeTotals {
			bucketSum.Calories += b.Calories
			bucketSum.ProteinG += b.ProteinG
			bucketSum.FatG += b.FatG
			bucketSum.CarbsG += b.CarbsG
		}
		report.BucketDrift = !totalsClose(bucketSum, daily.DailyTotals)

		if fix && (report.TotalsDrift || report.BucketDrift) {
			daily.DailyTotals = sum
			daily.MealTypeTotals = buckets
			b, err := json.Marshal(daily)
			if err != nil {
				return report, fmt.Errorf("encode rebuilt daily state: %w", err)
			}
			if err := store.Set(ledger.KeyDailyState, b); err != nil {
				return report, err
			}
			report.RebuiltTotals = true
		}
	}

	if fix {
		for _, key := range report.MalformedKeys {
			if err := store.Remove(key); err != nil {
				return report, err
			}
			report.RemovedKeys = append(report.RemovedKeys, key)
		}
	}
	return report, nil
}

func totalsClose(a, b model.Totals) bool {
	const eps = 1e-6
	return math.Abs(a.Calories-b.Calories) <= eps &&
		math.Abs(a.ProteinG-b.ProteinG) <= eps &&
		math.Abs(a.FatG-b.FatG) <= eps &&
		math.Abs(a.CarbsG-b.CarbsG) <= eps
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
