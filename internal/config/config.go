// Package config loads and validates renderer configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dibull/preview-renderer/internal/classifier"
	"github.com/dibull/preview-renderer/internal/seo"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Site       SiteConfig       `mapstructure:"site"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Cache      CacheConfig      `mapstructure:"cache"`
	DB         DBConfig         `mapstructure:"db"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Contact    ContactConfig    `mapstructure:"contact"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// AuthConfig guards the admin settings routes.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SiteConfig holds the site-wide metadata defaults every resolution
// falls back to.
type SiteConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	Name               string `mapstructure:"name"`
	DefaultTitle       string `mapstructure:"default_title"`
	DefaultDescription string `mapstructure:"default_description"`
	DefaultImage       string `mapstructure:"default_image"`
}

// ClassifierConfig carries the crawler signature list so it can grow
// without touching classifier logic.
type ClassifierConfig struct {
	Signatures []string `mapstructure:"signatures"`
}

// CacheConfig sets the HTTP-level cache hint on crawler responses.
type CacheConfig struct {
	MaxAgeSeconds int `mapstructure:"max_age_seconds"`
}

// DBConfig controls the settings store backend.
type DBConfig struct {
	Provider           string `mapstructure:"provider"`
	DSN                string `mapstructure:"dsn"`
	Table              string `mapstructure:"table"`
	MaxConns           int    `mapstructure:"max_conns"`
	MinConns           int    `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// NotifyConfig selects the cache-invalidation publisher.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ContactConfig wires the contact-form relay collaborators.
type ContactConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	CaptchaVerifyURL string `mapstructure:"captcha_verify_url"`
	CaptchaSecret    string `mapstructure:"captcha_secret"`
	EmailEndpoint    string `mapstructure:"email_endpoint"`
	EmailAPIKey      string `mapstructure:"email_api_key"`
	EmailFrom        string `mapstructure:"email_from"`
	EmailTo          string `mapstructure:"email_to"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("site.base_url", "https://dibull.com")
	v.SetDefault("site.name", "Digital Bull Technology")
	v.SetDefault("site.default_title", "Digital Bull Technology | Digital Marketing Agency")
	v.SetDefault("site.default_description",
		"Digital Bull Technology is a full-service digital marketing agency offering SEO, PPC, social media, and web development services.")
	v.SetDefault("site.default_image", "https://dibull.com/logo.png")
	v.SetDefault("classifier.signatures", classifier.DefaultSignatures)
	v.SetDefault("cache.max_age_seconds", 3600)
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.table", "page_seo_settings")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("contact.enabled", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL")
	}
	if strings.HasSuffix(c.Site.BaseURL, "/") {
		return fmt.Errorf("site.base_url must not end with a slash")
	}
	if c.Site.Name == "" || c.Site.DefaultTitle == "" || c.Site.DefaultDescription == "" || c.Site.DefaultImage == "" {
		return fmt.Errorf("site defaults must all be set")
	}
	if len(c.Classifier.Signatures) == 0 {
		return fmt.Errorf("classifier.signatures must not be empty")
	}
	if c.Cache.MaxAgeSeconds < 0 {
		return fmt.Errorf("cache.max_age_seconds must be >= 0")
	}
	switch c.DB.Provider {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	switch c.Notify.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic must be set when notify.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown notify.provider %q", c.Notify.Provider)
	}
	if c.Contact.Enabled {
		if c.Contact.CaptchaVerifyURL == "" || c.Contact.CaptchaSecret == "" {
			return fmt.Errorf("contact.captcha_verify_url and contact.captcha_secret must be set when contact is enabled")
		}
		if c.Contact.EmailEndpoint == "" || c.Contact.EmailAPIKey == "" || c.Contact.EmailTo == "" {
			return fmt.Errorf("contact email settings must be set when contact is enabled")
		}
	}
	return nil
}

// SiteDefaults converts the site section into the resolver's input struct.
func (c Config) SiteDefaults() seo.SiteDefaults {
	return seo.SiteDefaults{
		BaseURL:     c.Site.BaseURL,
		SiteName:    c.Site.Name,
		Title:       c.Site.DefaultTitle,
		Description: c.Site.DefaultDescription,
		Image:       c.Site.DefaultImage,
	}
}

// CacheMaxAge converts the cache section into a duration.
func (c Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Cache.MaxAgeSeconds) * time.Second
}

// ConnLifetime converts the pool lifetime knob into a duration.
func (c DBConfig) ConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}
