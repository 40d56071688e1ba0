package config

import (
	"fmt"
	"net/mail"
	"time"
)

// Validate performs cross-field validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if _, err := mail.ParseAddress(c.Auth.HardAdminEmail); err != nil {
		return fmt.Errorf("auth.hard_admin_email: %w", err)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("store.firestore_project is required for the firestore driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", DriverSQLite, DriverFirestore, c.Store.Driver)
	}

	switch c.Objects.Driver {
	case ObjectsLocal:
		if c.Objects.LocalDir == "" {
			return fmt.Errorf("objects.local_dir is required for the local driver")
		}
	case ObjectsS3:
		if c.Objects.S3Bucket == "" || c.Objects.S3Region == "" {
			return fmt.Errorf("objects.s3_bucket and objects.s3_region are required for the s3 driver")
		}
		if (c.Objects.S3AccessKey == "") != (c.Objects.S3SecretKey == "") {
			return fmt.Errorf("objects.s3_access_key and objects.s3_secret_key must be set together")
		}
	default:
		return fmt.Errorf("objects.driver must be %q or %q (got %q)", ObjectsLocal, ObjectsS3, c.Objects.Driver)
	}

	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("server.timezone: %w", err)
	}

	if c.Imaging.MaxWidth <= 0 {
		return fmt.Errorf("imaging.max_width must be > 0 (got %d)", c.Imaging.MaxWidth)
	}
	if c.Imaging.TargetBytes <= 0 || c.Imaging.TargetBytes > c.Imaging.MaxBytes {
		return fmt.Errorf("imaging.target_bytes must be in (0, max_bytes] (got %d, max %d)", c.Imaging.TargetBytes, c.Imaging.MaxBytes)
	}

	if c.Seznam.StateTTL <= 0 {
		return fmt.Errorf("seznam.state_ttl must be > 0")
	}

	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
