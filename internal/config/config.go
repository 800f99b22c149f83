package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InsecureJWTKey is used when JWT_KEY is not configured. Never run prod on it.
const InsecureJWTKey = "smart-campus-insecure-dev-secret"

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	MailNone   = "none"
	MailResend = "resend"
	MailSMTP   = "smtp"
)

// Config is the whole runtime configuration of the portal.
type Config struct {
	Env   string
	Port  string
	Debug bool

	StoreDriver string
	MongoURI    string
	MongoDB     string

	JWTKey                 []byte
	JWTKeyIsDefault        bool
	JWTTTL                 time.Duration
	AllowAdminRegistration bool

	CORSOrigins []string
	LogLevel    string

	RelayInterval    time.Duration
	RelayMaxAttempts int

	Mail MailConfig
}

// MailConfig selects and configures the e-mail mirror of notifications.
type MailConfig struct {
	Provider     string
	From         string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("store_driver", StoreMongo)
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "smart_campus")
	v.SetDefault("jwt_key", "")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("allow_admin_registration", false)
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("log_level", "info")
	v.SetDefault("relay_interval", time.Minute)
	v.SetDefault("relay_max_attempts", 5)
	v.SetDefault("mail_provider", MailNone)
	v.SetDefault("from_email", "")
	v.SetDefault("resend_api_key", "")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
}

// NewConfig reads the configuration from the environment. Call
// bootstrap.Loadenv first so a local .env is honored.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config out of an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	env := strings.ToLower(v.GetString("env"))
	key := v.GetString("jwt_key")
	cfg := &Config{
		Env:                    env,
		Port:                   v.GetString("port"),
		Debug:                  env == "dev",
		StoreDriver:            strings.ToLower(v.GetString("store_driver")),
		MongoURI:               v.GetString("mongo_uri"),
		MongoDB:                v.GetString("mongo_db"),
		JWTKey:                 []byte(key),
		JWTTTL:                 v.GetDuration("jwt_ttl"),
		AllowAdminRegistration: v.GetBool("allow_admin_registration"),
		CORSOrigins:            splitList(v.GetString("cors_origins")),
		LogLevel:               v.GetString("log_level"),
		RelayInterval:          v.GetDuration("relay_interval"),
		RelayMaxAttempts:       v.GetInt("relay_max_attempts"),
		Mail: MailConfig{
			Provider:     strings.ToLower(v.GetString("mail_provider")),
			From:         v.GetString("from_email"),
			ResendAPIKey: v.GetString("resend_api_key"),
			SMTPHost:     v.GetString("smtp_host"),
			SMTPPort:     v.GetInt("smtp_port"),
			SMTPUsername: v.GetString("smtp_username"),
			SMTPPassword: v.GetString("smtp_password"),
		},
	}
	if key == "" {
		cfg.JWTKey = []byte(InsecureJWTKey)
		cfg.JWTKeyIsDefault = true
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}
	if cfg.RelayInterval <= 0 {
		cfg.RelayInterval = time.Minute
	}
	if cfg.RelayMaxAttempts <= 0 {
		cfg.RelayMaxAttempts = 5
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
