package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		t.Setenv("REJECT_PROFILE_POLICY", "")
		t.Setenv("JWT_SIGNING_KEY", "")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, RejectPolicyRetain, cfg.Verification.RejectProfilePolicy)
		assert.Equal(t, devSigningKey, cfg.Auth.JWTSigningKey)
		assert.Equal(t, 5*time.Minute, cfg.Placement.ReportCacheTTL)
	})

	t.Run("lists are trimmed and admin emails lowered", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		t.Setenv("PLATFORM_ADMIN_EMAILS", " Root@Campus.Example , ,ops@campus.example")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"root@campus.example", "ops@campus.example"}, cfg.Verification.PlatformAdminEmails)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	})

	t.Run("unknown reject policy", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		t.Setenv("REJECT_PROFILE_POLICY", "archive")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProduction)
		t.Setenv("JWT_SIGNING_KEY", "")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
