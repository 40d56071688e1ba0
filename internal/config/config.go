// Package config loads application settings from YAML, .env and the environment.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Auth     AuthConfig     `yaml:"auth"`
	Seznam   SeznamConfig   `yaml:"seznam"`
	Mail     MailConfig     `yaml:"mail"`
	Objects  ObjectsConfig  `yaml:"objects"`
	Redis    RedisConfig    `yaml:"redis"`
	PDF      PDFConfig      `yaml:"pdf"`
	Imaging  ImagingConfig  `yaml:"imaging"`
	Features FeaturesConfig `yaml:"features"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	PublicURL       string        `yaml:"public_url"       env:"PUBLIC_URL"              env-default:"http://localhost:8080"`
	StaticPath      string        `yaml:"static_path"      env:"STATIC_PATH"             env-default:"./web/dist"`
	AllowedOrigins  string        `yaml:"allowed_origins"  env:"CORS_ALLOWED_ORIGINS"    env-default:"*"`
	Timezone        string        `yaml:"timezone"         env:"APP_TIMEZONE"            env-default:"Europe/Prague"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Store drivers.
const (
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver           string `yaml:"driver"            env:"STORE_DRIVER"      env-default:"sqlite"`
	SQLitePath       string `yaml:"sqlite_path"       env:"DB_PATH"           env-default:"./data/spolek.db"`
	FirestoreProject string `yaml:"firestore_project" env:"FIRESTORE_PROJECT"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"JWT_SECRET"       env-required:"true"`
	Issuer         string        `yaml:"issuer"           env:"JWT_ISSUER"       env-default:"spolek-rodicu"`
	TokenTTL       time.Duration `yaml:"token_ttl"        env:"JWT_TOKEN_TTL"    env-default:"12h"`
	HardAdminEmail string        `yaml:"hard_admin_email" env:"HARD_ADMIN_EMAIL" env-default:"satny@gvid.cz"`
}

// SeznamConfig holds the Seznam OAuth client settings.
type SeznamConfig struct {
	ClientID     string        `yaml:"client_id"     env:"SEZNAM_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"SEZNAM_CLIENT_SECRET"`
	RedirectURI  string        `yaml:"redirect_uri"  env:"SEZNAM_REDIRECT_URI"`
	AuthURL      string        `yaml:"auth_url"      env:"SEZNAM_AUTH_URL"      env-default:"https://login.szn.cz/api/v1/oauth/auth"`
	TokenURL     string        `yaml:"token_url"     env:"SEZNAM_TOKEN_URL"     env-default:"https://login.szn.cz/api/v1/oauth/token"`
	UserInfoURL  string        `yaml:"userinfo_url"  env:"SEZNAM_USERINFO_URL"  env-default:"https://login.szn.cz/api/v1/user"`
	StateTTL     time.Duration `yaml:"state_ttl"     env:"SEZNAM_STATE_TTL"     env-default:"10m"`
}

// Enabled reports whether the Seznam login endpoints can be served.
func (c SeznamConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// MailConfig holds the bulk mail webhook settings.
type MailConfig struct {
	WebhookURL string        `yaml:"webhook_url" env:"MAIL_WEBHOOK_URL"`
	Secret     string        `yaml:"secret"      env:"MAIL_WEBHOOK_SECRET"`
	Timeout    time.Duration `yaml:"timeout"     env:"MAIL_WEBHOOK_TIMEOUT" env-default:"15s"`
}

// Object store drivers.
const (
	ObjectsLocal = "local"
	ObjectsS3    = "s3"
)

// ObjectsConfig selects where attachments are stored.
type ObjectsConfig struct {
	Driver         string `yaml:"driver"           env:"OBJECTS_DRIVER"        env-default:"local"`
	LocalDir       string `yaml:"local_dir"        env:"OBJECTS_LOCAL_DIR"     env-default:"./data/objects"`
	S3Bucket       string `yaml:"s3_bucket"        env:"S3_BUCKET"`
	S3Region       string `yaml:"s3_region"        env:"S3_REGION"             env-default:"eu-central-1"`
	S3Endpoint     string `yaml:"s3_endpoint"      env:"S3_ENDPOINT"`
	S3AccessKey    string `yaml:"s3_access_key"    env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `yaml:"s3_secret_key"    env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style" env:"S3_USE_PATH_STYLE"    env-default:"false"`
	S3PublicURL    string `yaml:"s3_public_url"    env:"S3_PUBLIC_URL"`
}

// RedisConfig enables the Redis OAuth state store when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB" env-default:"0"`
}

// PDFConfig holds PDF export settings.
type PDFConfig struct {
	TemplatePath string `yaml:"template_path" env:"PDF_TEMPLATE_PATH"`
}

// ImagingConfig holds attachment compression limits.
type ImagingConfig struct {
	MaxWidth    int   `yaml:"max_width"    env:"IMAGE_MAX_WIDTH"    env-default:"1800"`
	TargetBytes int64 `yaml:"target_bytes" env:"IMAGE_TARGET_BYTES" env-default:"256000"`
	MaxBytes    int64 `yaml:"max_bytes"    env:"IMAGE_MAX_BYTES"    env-default:"512000"`
}

// FeaturesConfig toggles optional behavior.
type FeaturesConfig struct {
	// TestEndpoints exposes token minting and data seeding. Never enable in production.
	TestEndpoints   bool   `yaml:"test_endpoints"   env:"ENABLE_TEST_ENDPOINTS" env-default:"false"`
	JanitorSchedule string `yaml:"janitor_schedule" env:"JANITOR_SCHEDULE"      env-default:"@every 15m"`
}
