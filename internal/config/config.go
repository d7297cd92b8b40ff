package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	CSRF    CSRFConfig    `yaml:"csrf"`
	Routes  RoutesConfig  `yaml:"routes"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Mock    MockConfig    `yaml:"mock"`
}

// BackendConfig describes the remote API the client talks to.
type BackendConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	CSRFPath   string        `yaml:"csrf_path"`
	LoginPath  string        `yaml:"login_path"`
	LogoutPath string        `yaml:"logout_path"`
	UserPath   string        `yaml:"user_path"`
}

// CSRFConfig controls how the token is found, acquired and attached.
type CSRFConfig struct {
	CookieName         string        `yaml:"cookie_name"`
	HeaderName         string        `yaml:"header_name"`
	PollAttempts       int           `yaml:"poll_attempts"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	AttachWaits        int           `yaml:"attach_waits"`
	AttachWaitInterval time.Duration `yaml:"attach_wait_interval"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
}

type RoutesConfig struct {
	Login         string        `yaml:"login"`
	Protected     []string      `yaml:"protected"`
	Current       string        `yaml:"current"`
	RedirectDelay time.Duration `yaml:"redirect_delay"`
	LogoutGrace   time.Duration `yaml:"logout_grace"`
}

type CacheConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// MockConfig configures the local backend emulator started by serve-mock.
type MockConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	SessionCookie  string        `yaml:"session_cookie"`
	CookieDomain   string        `yaml:"cookie_domain"`
	CookieSecure   bool          `yaml:"cookie_secure"`
	CookieSameSite string        `yaml:"cookie_same_site"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	Users          []MockUser    `yaml:"users"`
}

type MockUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load settings from environment: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied and no file read.
func Default() *Config {
	var cfg Config
	_ = cfg.setDefaults()
	return &cfg
}

// FromEnv is Default with the environment overrides applied, for running
// without a config file.
func FromEnv() *Config {
	cfg := Default()
	_ = cfg.loadFromEnv()
	return cfg
}

func (c *Config) setDefaults() error {
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Backend.CSRFPath == "" {
		c.Backend.CSRFPath = "/sanctum/csrf-cookie"
	}
	if c.Backend.LoginPath == "" {
		c.Backend.LoginPath = "/login"
	}
	if c.Backend.LogoutPath == "" {
		c.Backend.LogoutPath = "/logout"
	}
	if c.Backend.UserPath == "" {
		c.Backend.UserPath = "/api/user"
	}

	if c.CSRF.CookieName == "" {
		c.CSRF.CookieName = "XSRF-TOKEN"
	}
	if c.CSRF.HeaderName == "" {
		c.CSRF.HeaderName = "X-XSRF-TOKEN"
	}
	if c.CSRF.PollAttempts == 0 {
		c.CSRF.PollAttempts = 10
	}
	if c.CSRF.PollInterval == 0 {
		c.CSRF.PollInterval = 50 * time.Millisecond
	}
	if c.CSRF.AttachWaits == 0 {
		c.CSRF.AttachWaits = 2
	}
	if c.CSRF.AttachWaitInterval == 0 {
		c.CSRF.AttachWaitInterval = 100 * time.Millisecond
	}
	if c.CSRF.RetryDelay == 0 {
		c.CSRF.RetryDelay = 100 * time.Millisecond
	}
	if c.CSRF.TokenTTL == 0 {
		c.CSRF.TokenTTL = 2 * time.Hour
	}

	if c.Routes.Login == "" {
		c.Routes.Login = "/login"
	}
	if len(c.Routes.Protected) == 0 {
		c.Routes.Protected = []string{
			"/dashboard",
			"/inventory",
			"/wallet",
			"/collaborators",
			"/analytics",
			"/notifications",
			"/onboarding",
			"/settings",
		}
	}
	if c.Routes.Current == "" {
		c.Routes.Current = "/dashboard"
	}
	if c.Routes.RedirectDelay == 0 {
		c.Routes.RedirectDelay = 100 * time.Millisecond
	}
	if c.Routes.LogoutGrace == 0 {
		c.Routes.LogoutGrace = time.Second
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}

	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if c.Cache.Redis.PoolSize == 0 {
			c.Cache.Redis.PoolSize = 10
		}
		if c.Cache.Redis.MaxRetries == 0 {
			c.Cache.Redis.MaxRetries = 3
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = "127.0.0.1:9464"
	}

	if c.Mock.Host == "" {
		c.Mock.Host = "127.0.0.1"
	}
	if c.Mock.Port == 0 {
		c.Mock.Port = 8000
	}
	if c.Mock.SessionCookie == "" {
		c.Mock.SessionCookie = "laravel_session"
	}
	if c.Mock.CookieSameSite == "" {
		c.Mock.CookieSameSite = "lax"
	}
	if c.Mock.SessionTTL == 0 {
		c.Mock.SessionTTL = 2 * time.Hour
	}

	return nil
}

func (c *Config) loadFromEnv() error {
	if envURL := os.Getenv("SANCTUM_BACKEND_URL"); envURL != "" {
		c.Backend.URL = envURL
	}
	if envLevel := os.Getenv("SANCTUM_LOG_LEVEL"); envLevel != "" {
		c.Logging.Level = envLevel
	}

	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if envPassword := os.Getenv("REDIS_PASSWORD"); envPassword != "" {
			c.Cache.Redis.Password = envPassword
		}
	}

	for i := range c.Mock.Users {
		user := &c.Mock.Users[i]
		if user.Password != "" {
			continue
		}
		if envPassword := os.Getenv(mockPasswordEnv(user.Email)); envPassword != "" {
			user.Password = envPassword
		}
	}

	return nil
}

// mockPasswordEnv maps alice@example.com to MOCK_PASSWORD_ALICE_EXAMPLE_COM.
func mockPasswordEnv(email string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, email)
	return "MOCK_PASSWORD_" + key
}
