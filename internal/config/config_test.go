package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() Config {
	return Config{
		Server:  ServerConfig{Timezone: "Europe/Prague"},
		Store:   StoreConfig{Driver: DriverSQLite, SQLitePath: "./data/spolek.db"},
		Auth:    AuthConfig{JWTSecret: testSecret, HardAdminEmail: "satny@gvid.cz"},
		Seznam:  SeznamConfig{StateTTL: 10 * time.Minute},
		Objects: ObjectsConfig{Driver: ObjectsLocal, LocalDir: "./data/objects"},
		Imaging: ImagingConfig{MaxWidth: 1800, TargetBytes: 256000, MaxBytes: 512000},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.Store.Driver)
	}
	if cfg.Auth.HardAdminEmail != "satny@gvid.cz" {
		t.Errorf("unexpected hard admin %q", cfg.Auth.HardAdminEmail)
	}
	if cfg.Seznam.StateTTL != 10*time.Minute {
		t.Errorf("expected 10m state TTL, got %v", cfg.Seznam.StateTTL)
	}
	if cfg.Imaging.MaxWidth != 1800 || cfg.Imaging.TargetBytes != 256000 || cfg.Imaging.MaxBytes != 512000 {
		t.Errorf("unexpected imaging defaults: %+v", cfg.Imaging)
	}
	if cfg.Features.TestEndpoints {
		t.Error("test endpoints must be disabled by default")
	}
	if cfg.Location().String() != "Europe/Prague" {
		t.Errorf("unexpected location %s", cfg.Location())
	}
}

func TestLoad_DotenvFillsUnsetVariables(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "JWT_SECRET=" + testSecret + "\nSTORE_DRIVER=firestore\nFIRESTORE_PROJECT=spolek\nPORT=9000\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DOTENV_PATH", envFile)
	t.Setenv("CONFIG_PATH", "")
	// Set explicitly so godotenv keeps it and t.Setenv restores the environment.
	t.Setenv("PORT", "9100")
	for _, k := range []string{"JWT_SECRET", "STORE_DRIVER", "FIRESTORE_PROJECT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != DriverFirestore || cfg.Store.FirestoreProject != "spolek" {
		t.Errorf("dotenv values not applied: %+v", cfg.Store)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("environment must win over .env, got port %d", cfg.Server.Port)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"bad admin email", func(c *Config) { c.Auth.HardAdminEmail = "not an email" }, "hard_admin_email"},
		{"unknown store", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"firestore without project", func(c *Config) { c.Store.Driver = DriverFirestore }, "firestore_project"},
		{"s3 without bucket", func(c *Config) { c.Objects.Driver = ObjectsS3 }, "s3_bucket"},
		{"s3 half credentials", func(c *Config) {
			c.Objects = ObjectsConfig{Driver: ObjectsS3, S3Bucket: "b", S3Region: "r", S3AccessKey: "k"}
		}, "set together"},
		{"unknown objects driver", func(c *Config) { c.Objects.Driver = "gcs" }, "objects.driver"},
		{"bad timezone", func(c *Config) { c.Server.Timezone = "Mars/Olympus" }, "timezone"},
		{"target above max", func(c *Config) { c.Imaging.TargetBytes = 600000 }, "target_bytes"},
		{"zero state ttl", func(c *Config) { c.Seznam.StateTTL = 0 }, "state_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSeznamConfig_Enabled(t *testing.T) {
	if (SeznamConfig{}).Enabled() {
		t.Error("empty config must be disabled")
	}
	if !(SeznamConfig{ClientID: "id", ClientSecret: "s", RedirectURI: "http://x/cb"}).Enabled() {
		t.Error("complete config must be enabled")
	}
}
