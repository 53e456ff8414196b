package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	ierr "github.com/flexprice/payment-notifier/internal/errors"
	"github.com/flexprice/payment-notifier/internal/types"
	"github.com/flexprice/payment-notifier/internal/validator"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Stripe     StripeConfig     `mapstructure:"stripe" validate:"required"`
	Slack      SlackConfig      `mapstructure:"slack" validate:"required"`
	Notifier   NotifierConfig   `mapstructure:"notifier" validate:"required"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Pyroscope  PyroscopeConfig  `mapstructure:"pyroscope"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// Address returns the host:port the HTTP server listens on
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// StripeConfig holds the inbound webhook verification settings
type StripeConfig struct {
	WebhookSecret      string        `mapstructure:"webhook_secret" validate:"required"`
	SignatureTolerance time.Duration `mapstructure:"signature_tolerance"`
}

// SlackConfig holds the chat sink settings
type SlackConfig struct {
	BotToken    string        `mapstructure:"bot_token" validate:"required"`
	APIEndpoint string        `mapstructure:"api_endpoint" validate:"required,url"`
	ChannelID   string        `mapstructure:"channel_id" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type NotifierConfig struct {
	Mode  types.NotifierMode `mapstructure:"mode" validate:"required"`
	Topic string             `mapstructure:"topic"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type PyroscopeConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	ServerAddress   string   `mapstructure:"server_address"`
	ApplicationName string   `mapstructure:"application_name"`
	BasicAuthUser   string   `mapstructure:"basic_auth_user"`
	BasicAuthPass   string   `mapstructure:"basic_auth_pass"`
	SampleRate      uint32   `mapstructure:"sample_rate"`
	DisableGCRuns   bool     `mapstructure:"disable_gc_runs"`
	ProfileTypes    []string `mapstructure:"profile_types"`
}

// legacyEnv maps config keys to the environment variable names the first
// version of the service read, so existing deployments keep working
var legacyEnv = map[string]string{
	"server.port":           "PORT",
	"stripe.webhook_secret": "STRIPE_END_POINT_SECRET",
	"slack.bot_token":       "SLACK_BOT_TOKEN",
	"slack.api_endpoint":    "SLACK_API_ENDPOINT",
	"slack.channel_id":      "SLACK_CHANNEL_ID",
}

const envPrefix = "NOTIFIER"

func NewConfig() (*Configuration, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/payment-notifier")

	return load(v)
}

func load(v *viper.Viper) (*Configuration, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
		fmt.Printf("No config file found, using defaults and environment\n")
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal
func setDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()

	v.SetDefault("deployment.mode", string(defaults.Deployment.Mode))
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("logging.level", string(defaults.Logging.Level))
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.signature_tolerance", defaults.Stripe.SignatureTolerance)
	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.api_endpoint", defaults.Slack.APIEndpoint)
	v.SetDefault("slack.channel_id", defaults.Slack.ChannelID)
	v.SetDefault("slack.timeout", defaults.Slack.Timeout)
	v.SetDefault("notifier.mode", string(defaults.Notifier.Mode))
	v.SetDefault("notifier.topic", defaults.Notifier.Topic)
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("pyroscope.enabled", false)
	v.SetDefault("pyroscope.server_address", "")
	v.SetDefault("pyroscope.application_name", "payment-notifier")
	v.SetDefault("pyroscope.basic_auth_user", "")
	v.SetDefault("pyroscope.basic_auth_pass", "")
	v.SetDefault("pyroscope.sample_rate", 100)
	v.SetDefault("pyroscope.disable_gc_runs", false)
}

func (c Configuration) Validate() error {
	if err := validator.ValidateStruct(c, "Invalid configuration"); err != nil {
		return err
	}
	if err := c.Notifier.Mode.Validate(); err != nil {
		return err
	}
	// a Lambda invocation is frozen once it responds, so nothing would
	// drain the in-memory queue
	if c.Deployment.Mode == types.ModeAWSLambdaAPI && c.Notifier.Mode == types.NotifierModeAsync {
		return ierr.NewError("async notifier is not supported on lambda").
			WithHintf("Set notifier.mode to %q when deployment.mode is %q", types.NotifierModeSync, types.ModeAWSLambdaAPI).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetDefaultConfig returns the defaults used before any file or environment
// override is applied. Secrets are left empty.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Port: 4242},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Stripe:     StripeConfig{SignatureTolerance: 5 * time.Minute},
		Slack: SlackConfig{
			APIEndpoint: "https://slack.com/api/chat.postMessage",
			ChannelID:   "C079U6AMQ73",
			Timeout:     10 * time.Second,
		},
		Notifier: NotifierConfig{
			Mode:  types.NotifierModeSync,
			Topic: "chat_notifications",
		},
	}
}
