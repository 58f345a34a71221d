package mailer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/freeflowuniverse/heromail/pkg/imapclient"
	"github.com/freeflowuniverse/heromail/pkg/smtpclient"
)

// Config holds the account and server settings for one mail account,
// plus the redis settings used by the outbox daemons.
type Config struct {
	SMTP smtpclient.Config `yaml:"smtp"`
	IMAP imapclient.Config `yaml:"imap"`
	// Archive disables the IMAP append stage when false.
	Archive bool        `yaml:"archive"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds the connection settings for the outbox queue.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoadConfig reads a YAML configuration file. Missing fields keep
// their defaults: SMTP 587/starttls/plain auth, IMAP 993/implicit TLS,
// archiving enabled, redis on localhost:6379.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("config %s: smtp.host is required", path)
	}
	if cfg.Archive && cfg.IMAP.Host == "" {
		return nil, fmt.Errorf("config %s: imap.host is required when archiving is enabled", path)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		SMTP: smtpclient.Config{
			Port: 587,
			TLS:  smtpclient.TLSStartTLS,
			Auth: smtpclient.AuthPlain,
		},
		IMAP: imapclient.Config{
			Port: 993,
			TLS:  imapclient.TLSImplicit,
		},
		Archive: true,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}
