package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MEDRECON"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Upload    UploadConfig
	Log       LogConfig
	CORS      CORSConfig
	Match     MatchConfig
	Extractor ExtractorConfig
	Telemetry TelemetryConfig
}

// TelemetryConfig holds OpenTelemetry trace export settings. An empty
// endpoint disables export.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MatchConfig holds reconciliation settings.
type MatchConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// ProviderConfig holds settings for a single LLM table extraction provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds PDF table extraction settings. Providers are tried
// in primary, secondary, tertiary order.
type ExtractorConfig struct {
	Concurrency int            `mapstructure:"concurrency"`
	Primary     ProviderConfig `mapstructure:"primary"`
	Secondary   ProviderConfig `mapstructure:"secondary"`
	Tertiary    ProviderConfig `mapstructure:"tertiary"`
}

// Providers returns the configured providers in fallback order, skipping
// empty slots.
func (e *ExtractorConfig) Providers() []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range []*ProviderConfig{&e.Primary, &e.Secondary, &e.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds API token signing settings.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds report archive settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// UploadConfig limits uploaded source files.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the per-file size limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB << 20
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.port":          ":8080",
	"server.read_timeout":  "30s",
	"server.write_timeout": "5m",
	"server.environment":   "development",

	"db.host":     "localhost",
	"db.port":     5432,
	"db.user":     "medrecon",
	"db.password": "medrecon_secret",
	"db.name":     "medrecon_db",
	"db.sslmode":  "disable",
	"db.max_open": 10,
	"db.max_idle": 5,

	"jwt.secret":        "change-me-in-production",
	"jwt.access_expiry": "24h",
	"jwt.issuer":        "medrecon",

	"s3.region":         "us-east-1",
	"s3.bucket":         "medrecon-reports",
	"s3.endpoint":       "",
	"s3.access_key":     "",
	"s3.secret_key":     "",
	"s3.presign_expiry": 3600,

	"upload.max_file_size_mb": 20,

	"log.level":  "debug",
	"log.format": "console",

	"cors.allowed_origins": "http://localhost:3000,http://127.0.0.1:3000",

	"match.threshold": 75.0,

	"extractor.concurrency": 4,

	"telemetry.otlp_endpoint": "",
	"telemetry.insecure":      true,
}

var providerSlots = []string{"primary", "secondary", "tertiary"}

// Load reads configuration from environment variables with the MEDRECON_
// prefix. Nested keys use underscores, e.g. MEDRECON_DB_HOST.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, slot := range providerSlots {
		v.SetDefault("extractor."+slot+".provider", "")
		v.SetDefault("extractor."+slot+".api_key", "")
		v.SetDefault("extractor."+slot+".default_model", "")
		v.SetDefault("extractor."+slot+".timeout_secs", 120)
	}
	v.SetDefault("extractor.primary.provider", "claude")

	// AutomaticEnv only resolves keys viper already knows, so bind every
	// defaulted key explicitly.
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key, envName(key))
	}

	cfg := &Config{}

	// PaaS platforms set PORT; it applies unless MEDRECON_SERVER_PORT is set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envName("server.port")) == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Match = MatchConfig{Threshold: v.GetFloat64("match.threshold")}
	if cfg.Match.Threshold < 0 || cfg.Match.Threshold > 100 {
		return nil, fmt.Errorf("match.threshold must be between 0 and 100, got %v", cfg.Match.Threshold)
	}

	cfg.Extractor = ExtractorConfig{
		Concurrency: v.GetInt("extractor.concurrency"),
		Primary:     providerConfig(v, "primary"),
		Secondary:   providerConfig(v, "secondary"),
		Tertiary:    providerConfig(v, "tertiary"),
	}
	if cfg.Extractor.Concurrency < 1 {
		cfg.Extractor.Concurrency = 1
	}

	cfg.Telemetry = TelemetryConfig{
		OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
		Insecure:     v.GetBool("telemetry.insecure"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, slot string) ProviderConfig {
	prefix := "extractor." + slot + "."
	return ProviderConfig{
		Provider:     v.GetString(prefix + "provider"),
		APIKey:       v.GetString(prefix + "api_key"),
		DefaultModel: v.GetString(prefix + "default_model"),
		TimeoutSecs:  v.GetInt(prefix + "timeout_secs"),
	}
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
