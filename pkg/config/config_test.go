package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SESSION_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Insights.GlobalCooldown)
	assert.Equal(t, 60*time.Second, cfg.Insights.DefaultCategoryCooldown)
	assert.Equal(t, 30*time.Second, cfg.Insights.ContextualInterval)
	assert.Equal(t, 6, cfg.Insights.ContextualWindow)
	assert.Equal(t, 2, cfg.Insights.MinContextualSegments)
	assert.True(t, cfg.Insights.ResetCooldownOnDisconnect)
	assert.Equal(t, 2*time.Hour, cfg.Insights.CooldownRetention)
	assert.Equal(t, 60*time.Second, cfg.Insights.ReportTimeout)
	assert.Equal(t, 4*time.Hour, cfg.JWT.SessionExpiry)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoad_InsightsOverrides(t *testing.T) {
	t.Setenv("JWT_SESSION_SECRET", "secret")
	t.Setenv("INSIGHTS_GLOBAL_COOLDOWN", "5s")
	t.Setenv("INSIGHTS_RESET_COOLDOWN_ON_DISCONNECT", "false")
	t.Setenv("INSIGHTS_CONTEXTUAL_WINDOW", "10")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Insights.GlobalCooldown)
	assert.False(t, cfg.Insights.ResetCooldownOnDisconnect)
	assert.Equal(t, 10, cfg.Insights.ContextualWindow)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a , ,b"))
	assert.Empty(t, splitList(""))
}
