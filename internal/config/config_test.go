package config

import (
	"testing"
	"time"

	ierr "github.com/flexprice/payment-notifier/internal/errors"
	"github.com/flexprice/payment-notifier/internal/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader looks at. viper treats empty
// values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for key, legacy := range legacyEnv {
		t.Setenv(legacy, "")
		t.Setenv("NOTIFIER_"+envKey(key), "")
	}
	t.Setenv("NOTIFIER_NOTIFIER_MODE", "")
	t.Setenv("NOTIFIER_SERVER_HOST", "")
}

func envKey(key string) string {
	out := []byte(key)
	for i, c := range out {
		switch {
		case c == '.':
			out[i] = '_'
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return v
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_END_POINT_SECRET", "whsec_legacy")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-legacy")
	t.Setenv("SLACK_API_ENDPOINT", "https://chat.example.com/api/chat.postMessage")
	t.Setenv("PORT", "5050")

	cfg, err := load(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "whsec_legacy", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "xoxb-legacy", cfg.Slack.BotToken)
	assert.Equal(t, "https://chat.example.com/api/chat.postMessage", cfg.Slack.APIEndpoint)
	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, ":5050", cfg.Server.Address())
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_END_POINT_SECRET", "whsec_legacy")
	t.Setenv("NOTIFIER_STRIPE_WEBHOOK_SECRET", "whsec_prefixed")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-legacy")

	cfg, err := load(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "whsec_prefixed", cfg.Stripe.WebhookSecret)
}

func TestLoad_FileDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_END_POINT_SECRET", "whsec_test")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	cfg, err := load(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, types.ModeLocal, cfg.Deployment.Mode)
	assert.Equal(t, 4242, cfg.Server.Port)
	assert.Equal(t, "C079U6AMQ73", cfg.Slack.ChannelID)
	assert.Equal(t, "https://slack.com/api/chat.postMessage", cfg.Slack.APIEndpoint)
	assert.Equal(t, 10*time.Second, cfg.Slack.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Stripe.SignatureTolerance)
	assert.Equal(t, types.NotifierModeSync, cfg.Notifier.Mode)
	assert.Equal(t, "chat_notifications", cfg.Notifier.Topic)
	assert.False(t, cfg.Sentry.Enabled)
}

func TestLoad_MissingSecrets(t *testing.T) {
	clearEnv(t)

	_, err := load(newTestViper())
	assert.Error(t, err)
}

func TestValidate_NotifierMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stripe.WebhookSecret = "whsec_test"
	cfg.Slack.BotToken = "xoxb-test"
	require.NoError(t, cfg.Validate())

	cfg.Notifier.Mode = "eventually"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestValidate_AsyncNotifierOnLambda(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stripe.WebhookSecret = "whsec_test"
	cfg.Slack.BotToken = "xoxb-test"
	cfg.Deployment.Mode = types.ModeAWSLambdaAPI
	require.NoError(t, cfg.Validate())

	cfg.Notifier.Mode = types.NotifierModeAsync
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	cfg.Deployment.Mode = types.ModeAPI
	assert.NoError(t, cfg.Validate())
}
