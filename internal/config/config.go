package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"dispatch-sim/internal/eta"
)

type Config struct {
	DatabaseURL     string
	NATSURL         string
	MetricsAddr     string
	HTTPAddr        string
	NotifyDBPath    string
	ETAModel        eta.Model
	StepMin         time.Duration
	StepMax         time.Duration
	CheckpointKm    float64
	RefreshInterval time.Duration
	PrepSteps       int
	Seed            int64
	Location        *time.Location
	LogNATSSubjects bool
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		db := getenvDefault("PGDATABASE", "dispatch")
		sslmode := getenvDefault("PGSSLMODE", "disable")
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	} else {
		cfg.DatabaseURL = dsn
	}

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	cfg.NotifyDBPath = getenvDefault("NOTIFY_DB", "dispatch_notifications.db")

	model, err := eta.ParseModel(os.Getenv("ETA_MODEL"))
	if err != nil {
		return nil, fmt.Errorf("invalid ETA_MODEL: %w", err)
	}
	cfg.ETAModel = model

	// Per-segment simulation delay bounds
	if v := os.Getenv("STEP_MIN_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid STEP_MIN_MS: %q", v)
		}
		cfg.StepMin = time.Duration(ms) * time.Millisecond
	} else {
		cfg.StepMin = 800 * time.Millisecond
	}
	if v := os.Getenv("STEP_MAX_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid STEP_MAX_MS: %q", v)
		}
		cfg.StepMax = time.Duration(ms) * time.Millisecond
	} else {
		cfg.StepMax = 2500 * time.Millisecond
	}
	if cfg.StepMax < cfg.StepMin {
		return nil, fmt.Errorf("STEP_MAX_MS %v below STEP_MIN_MS %v", cfg.StepMax, cfg.StepMin)
	}

	// Checkpoint spacing (km)
	if v := os.Getenv("CHECKPOINT_INTERVAL_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid CHECKPOINT_INTERVAL_KM: %q", v)
		}
		cfg.CheckpointKm = f
	} else {
		cfg.CheckpointKm = 5.0
	}

	// Checkpoint refresh interval (seconds)
	if v := os.Getenv("REFRESH_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec < 0 {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL_SEC: %q", v)
		}
		cfg.RefreshInterval = time.Duration(sec) * time.Second
	} else {
		cfg.RefreshInterval = 5 * time.Minute
	}

	// Hospital-preparation progress steps
	if v := os.Getenv("PREP_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid PREP_STEPS: %q", v)
		}
		cfg.PrepSteps = n
	}

	// Seed for synthetic checkpoint metadata; 0 means time-based
	if v := os.Getenv("CHECKPOINT_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CHECKPOINT_SEED: %q", v)
		}
		cfg.Seed = n
	}

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			cfg.LogNATSSubjects = true
		default:
			cfg.LogNATSSubjects = false
		}
	}

	// Time zone (drives the rush-hour factor)
	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
