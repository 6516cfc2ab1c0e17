package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"guardpatrol.com/patrol/infrastructure/devops"
)

type Config struct {
	AppEnv    string `mapstructure:"APP_ENV"`
	Port      string `mapstructure:"PORT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	DSN              string `mapstructure:"DSN"`
	DBMaxConnections int    `mapstructure:"DB_MAX_CONNECTIONS"`
	DBLogLevel       string `mapstructure:"DB_LOG_LEVEL"`
	// DBParameter names an SSM parameter holding database entries. When set
	// and DSN is empty the entry named DBEntry is used.
	DBParameter string `mapstructure:"DB_PARAMETER"`
	DBEntry     string `mapstructure:"DB_ENTRY"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	RedisURL  string `mapstructure:"REDIS_URL"`

	SlackToken   string `mapstructure:"SLACK_TOKEN"`
	SlackChannel string `mapstructure:"SLACK_CHANNEL"`
	// AlertEmailTo is a comma separated recipient list for SES alerts.
	AlertEmailFrom string `mapstructure:"ALERT_EMAIL_FROM"`
	AlertEmailTo   string `mapstructure:"ALERT_EMAIL_TO"`

	PhotoBucket string `mapstructure:"PHOTO_BUCKET"`
	PhotoDir    string `mapstructure:"PHOTO_DIR"`
	// ReportPrefix is the storage prefix the daily report job writes to.
	ReportPrefix string `mapstructure:"REPORT_PREFIX"`

	DashboardConcurrency int `mapstructure:"DASHBOARD_CONCURRENCY"`
}

var defaults = map[string]any{
	"APP_ENV":               "development",
	"PORT":                  ":8080",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"DSN":                   "",
	"DB_MAX_CONNECTIONS":    20,
	"DB_LOG_LEVEL":          "warn",
	"DB_PARAMETER":          "",
	"DB_ENTRY":              "patrol",
	"JWT_SECRET":            "",
	"REDIS_URL":             "",
	"SLACK_TOKEN":           "",
	"SLACK_CHANNEL":         "",
	"ALERT_EMAIL_FROM":      "",
	"ALERT_EMAIL_TO":        "",
	"PHOTO_BUCKET":          "",
	"PHOTO_DIR":             "uploads",
	"REPORT_PREFIX":         "reports/",
	"DASHBOARD_CONCURRENCY": 8,
}

// LoadConfig reads .env.<APP_ENV> from dir when present. Environment
// variables take precedence over the file.
func LoadConfig(dir string) (c Config, err error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	err = v.Unmarshal(&c)
	return
}

// ResolveDSN returns the configured DSN, falling back to the SSM entry.
func (c Config) ResolveDSN(ctx context.Context) (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.DBParameter == "" {
		return "", errors.New("neither DSN nor DB_PARAMETER is set")
	}
	entries, err := devops.LoadDBConfig(ctx, c.DBParameter)
	if err != nil {
		return "", err
	}
	entry, err := devops.FindDBEntry(entries, c.DBEntry)
	if err != nil {
		return "", err
	}
	return entry.DSN(), nil
}
