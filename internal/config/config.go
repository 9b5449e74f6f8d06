package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string        `yaml:"addr"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
		MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver         string `yaml:"driver"`
		DSN            string `yaml:"dsn"`
		MaxConns       int32  `yaml:"max_conns"`
		MigrateOnStart bool   `yaml:"migrate_on_start"`
		// Crea openid/profile/email al arrancar si faltan.
		SeedOnStart bool `yaml:"seed_on_start"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled        bool      `yaml:"enabled"`
		PasswordReset  RateLimit `yaml:"password_reset"`
		ChangePassword RateLimit `yaml:"change_password"`
	} `yaml:"rate"`

	Security struct {
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
		// Costo bcrypt para secrets de clients y api resources.
		SecretHashCost int `yaml:"secret_hash_cost"`
		// Clave maestra de secretbox (base64, hex o 32 bytes crudos).
		SecretboxKey string `yaml:"secretbox_key"`
	} `yaml:"security"`

	Tokens struct {
		SigningKey       string        `yaml:"signing_key"`
		Issuer           string        `yaml:"issuer"`
		EmailConfirmTTL  time.Duration `yaml:"email_confirm_ttl"`
		PasswordResetTTL time.Duration `yaml:"password_reset_ttl"`
	} `yaml:"tokens"`

	Messaging struct {
		// smtp | http | log
		Mode string `yaml:"mode"`
		From string `yaml:"from"`
		HTTP struct {
			BaseURL    string        `yaml:"base_url"`
			Timeout    time.Duration `yaml:"timeout"`
			MaxRetries uint          `yaml:"max_retries"`
		} `yaml:"http"`
	} `yaml:"messaging"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		// PasswordEnc: password cifrada con secretbox; tiene prioridad sobre Password.
		PasswordEnc string `yaml:"password_enc"`
		// auto | starttls | ssl | none
		TLSMode string `yaml:"tls_mode"`
	} `yaml:"smtp"`

	Account struct {
		// Base pública para armar links de email (confirmación, reset).
		BaseURL            string `yaml:"base_url"`
		DefaultRedirectURI string `yaml:"default_redirect_uri"`
	} `yaml:"account"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Load lee el YAML (si existe), completa defaults y aplica overrides de entorno.
// Un path vacío o inexistente no es error: queda la config por defecto + env.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default retorna la config por defecto sin leer archivo ni entorno.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "securityservice"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 64 << 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "secsvc:"
	}
	if c.Rate.PasswordReset.Limit == 0 {
		c.Rate.PasswordReset.Limit = 5
	}
	if c.Rate.PasswordReset.Window == 0 {
		c.Rate.PasswordReset.Window = 10 * time.Minute
	}
	if c.Rate.ChangePassword.Limit == 0 {
		c.Rate.ChangePassword.Limit = 10
	}
	if c.Rate.ChangePassword.Window == 0 {
		c.Rate.ChangePassword.Window = time.Minute
	}
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 6
	}
	if c.Security.SecretHashCost == 0 {
		c.Security.SecretHashCost = 10
	}
	if c.Tokens.Issuer == "" {
		c.Tokens.Issuer = "securityservice"
	}
	if c.Tokens.EmailConfirmTTL == 0 {
		c.Tokens.EmailConfirmTTL = 48 * time.Hour
	}
	if c.Tokens.PasswordResetTTL == 0 {
		c.Tokens.PasswordResetTTL = time.Hour
	}
	if c.Messaging.Mode == "" {
		c.Messaging.Mode = "log"
	}
	if c.Messaging.From == "" {
		c.Messaging.From = "no-reply@securityservice.local"
	}
	if c.Messaging.HTTP.Timeout == 0 {
		c.Messaging.HTTP.Timeout = 10 * time.Second
	}
	if c.Messaging.HTTP.MaxRetries == 0 {
		c.Messaging.HTTP.MaxRetries = 3
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
	if c.Account.BaseURL == "" {
		c.Account.BaseURL = "http://localhost:5001"
	}
	if c.Account.DefaultRedirectURI == "" {
		c.Account.DefaultRedirectURI = strings.TrimRight(c.Account.BaseURL, "/") + "/"
	}
}

// Validate revisa combinaciones inválidas después de defaults + env.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: storage.dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("config: cache.redis.addr is required for kind redis")
		}
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}
	switch c.Messaging.Mode {
	case "log":
	case "smtp":
		if c.SMTP.Host == "" {
			return errors.New("config: smtp.host is required for messaging.mode smtp")
		}
	case "http":
		if c.Messaging.HTTP.BaseURL == "" {
			return errors.New("config: messaging.http.base_url is required for messaging.mode http")
		}
	default:
		return fmt.Errorf("config: unknown messaging.mode %q", c.Messaging.Mode)
	}
	if c.SMTP.PasswordEnc != "" && c.Security.SecretboxKey == "" {
		return errors.New("config: smtp.password_enc requires security.secretbox_key (SECRETBOX_MASTER_KEY)")
	}
	if c.IsProd() && len(c.Tokens.SigningKey) < 32 {
		return errors.New("config: tokens.signing_key must be at least 32 bytes in prod")
	}
	if c.Tokens.EmailConfirmTTL < 0 || c.Tokens.PasswordResetTTL < 0 {
		return errors.New("config: token ttl must be positive")
	}
	return nil
}

func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides: el entorno pisa lo que venga del YAML.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_CONNS"); ok {
		c.Storage.MaxConns = int32(v)
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE_ON_START"); ok {
		c.Storage.MigrateOnStart = v
	}
	if v, ok := getEnvBool("STORAGE_SEED_ON_START"); ok {
		c.Storage.SeedOnStart = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_PASSWORD_RESET_LIMIT"); ok {
		c.Rate.PasswordReset.Limit = v
	}
	if v, ok := getEnvDur("RATE_PASSWORD_RESET_WINDOW"); ok {
		c.Rate.PasswordReset.Window = v
	}
	if v, ok := getEnvInt("RATE_CHANGE_PASSWORD_LIMIT"); ok {
		c.Rate.ChangePassword.Limit = v
	}
	if v, ok := getEnvDur("RATE_CHANGE_PASSWORD_WINDOW"); ok {
		c.Rate.ChangePassword.Window = v
	}

	if v, ok := getEnvInt("SECURITY_PASSWORD_MIN_LENGTH"); ok {
		c.Security.PasswordPolicy.MinLength = v
	}
	if v, ok := getEnvStr("SECURITY_PASSWORD_BLACKLIST_PATH"); ok {
		c.Security.PasswordBlacklistPath = v
	}

	if v, ok := getEnvStr("TOKENS_SIGNING_KEY"); ok {
		c.Tokens.SigningKey = v
	}
	if v, ok := getEnvStr("TOKENS_ISSUER"); ok {
		c.Tokens.Issuer = v
	}
	if v, ok := getEnvDur("TOKENS_EMAIL_CONFIRM_TTL"); ok {
		c.Tokens.EmailConfirmTTL = v
	}
	if v, ok := getEnvDur("TOKENS_PASSWORD_RESET_TTL"); ok {
		c.Tokens.PasswordResetTTL = v
	}

	if v, ok := getEnvStr("MESSAGING_MODE"); ok {
		c.Messaging.Mode = strings.ToLower(v)
	}
	if v, ok := getEnvStr("MESSAGING_FROM"); ok {
		c.Messaging.From = v
	}
	if v, ok := getEnvStr("MESSAGING_HTTP_BASE_URL"); ok {
		c.Messaging.HTTP.BaseURL = v
	}
	if v, ok := getEnvDur("MESSAGING_HTTP_TIMEOUT"); ok {
		c.Messaging.HTTP.Timeout = v
	}
	if v, ok := getEnvInt("MESSAGING_HTTP_MAX_RETRIES"); ok && v >= 0 {
		c.Messaging.HTTP.MaxRetries = uint(v)
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD_ENC"); ok {
		c.SMTP.PasswordEnc = v
	}
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretboxKey = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = v
	}

	if v, ok := getEnvStr("ACCOUNT_BASE_URL"); ok {
		c.Account.BaseURL = v
	}
	if v, ok := getEnvStr("ACCOUNT_DEFAULT_REDIRECT_URI"); ok {
		c.Account.DefaultRedirectURI = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}
