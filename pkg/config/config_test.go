package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Projections.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Projections.ProposalTTL)
	assert.Equal(t, 10*time.Minute, cfg.Projections.CacheTTL)
	assert.False(t, cfg.Exports.Enabled)
	assert.Equal(t, 1, cfg.Exports.WorkerConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.Exports.SignedURLTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PROJECTION_PROPOSAL_TTL", "5m")
	v.Set("PROJECTION_CACHE_TTL", "not-a-duration")
	v.Set("EXPORTS_WORKER_CONCURRENCY", 0)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, 5*time.Minute, cfg.Projections.ProposalTTL)
	assert.Equal(t, 10*time.Minute, cfg.Projections.CacheTTL)
	assert.Equal(t, 1, cfg.Exports.WorkerConcurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
