package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

// DiagnosticsSummary describes the S3 settings without exposing secrets.
func (c S3Config) DiagnosticsSummary() string {
	accessKeyStatus := "not set"
	if strings.TrimSpace(c.AccessKeyID) != "" {
		accessKeyStatus = "set"
	}
	secretKeyStatus := "not set"
	if strings.TrimSpace(c.SecretAccessKey) != "" {
		secretKeyStatus = "set"
	}
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		accessKeyStatus,
		secretKeyStatus,
	)
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

type PredictorConfig struct {
	URL            string
	TimeoutSeconds int
	RPS            float64
	Burst          int
}

func (c PredictorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	DBPath    string
	Predictor PredictorConfig

	// Uploads
	UploadMaxMB       int
	UploadAllowedMime []string

	IdleReminderHours int
	NotifyCommand     string

	S3 S3Config
}

func (c Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) * 1024 * 1024
}

func (c Config) IdleThreshold() time.Duration {
	return time.Duration(c.IdleReminderHours) * time.Hour
}

// Load reads the configuration from environment variables.
func Load() Config {
	timeout := envInt("PLATELOG_PREDICTOR_TIMEOUT_SECONDS", 12)
	if timeout <= 0 {
		timeout = 12
	}
	rps := envFloat("PLATELOG_PREDICTOR_RPS", 2)
	if rps <= 0 {
		rps = 2
	}
	burst := envInt("PLATELOG_PREDICTOR_BURST", 1)
	if burst <= 0 {
		burst = 1
	}

	uploadMaxMB := envInt("PLATELOG_UPLOAD_MAX_MB", 10)
	if uploadMaxMB <= 0 {
		uploadMaxMB = 10
	}
	allowed := os.Getenv("PLATELOG_UPLOAD_ALLOWED_MIME")
	if strings.TrimSpace(allowed) == "" {
		allowed = "image/jpeg,image/png,image/webp"
	}

	idleHours := envInt("PLATELOG_IDLE_REMINDER_HOURS", 4)
	if idleHours <= 0 {
		idleHours = 4
	}

	return Config{
		DBPath: strings.TrimSpace(os.Getenv("PLATELOG_DB")),
		Predictor: PredictorConfig{
			URL:            strings.TrimRight(strings.TrimSpace(os.Getenv("PLATELOG_PREDICTOR_URL")), "/"),
			TimeoutSeconds: timeout,
			RPS:            rps,
			Burst:          burst,
		},
		UploadMaxMB:       uploadMaxMB,
		UploadAllowedMime: splitList(allowed),
		IdleReminderHours: idleHours,
		NotifyCommand:     strings.TrimSpace(os.Getenv("PLATELOG_NOTIFY_COMMAND")),
		S3: S3Config{
			Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		},
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}
