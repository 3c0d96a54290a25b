package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GENERATED_DIR", "")
	t.Setenv("ARTIFACT_BACKEND", "")
	t.Setenv("UPSTREAM_TIMEOUT", "")
	t.Setenv("NANO_GPT_BASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://nano-gpt.com", cfg.UpstreamBaseURL)
	assert.Equal(t, config.BackendLocal, cfg.ArtifactBackend)
	assert.Equal(t, 120*time.Second, cfg.UpstreamTimeout)
	assert.True(t, filepath.IsAbs(cfg.GeneratedDir))
	assert.Equal(t, "generated", filepath.Base(cfg.GeneratedDir))
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_TimeoutAsSeconds(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("UPSTREAM_TIMEOUT", "45")
	t.Setenv("LOCK_TTL", "2m")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
}

func TestValidate_Backends(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", ArtifactBackend: config.BackendSupabase}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")

	cfg = &config.Config{JWTSecret: "secret", ArtifactBackend: config.BackendS3, S3Endpoint: "minio:9000"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTIFACT_S3_ACCESS_KEY")

	cfg = &config.Config{JWTSecret: "secret", ArtifactBackend: "ftp"}
	assert.Error(t, cfg.Validate())

	cfg = &config.Config{JWTSecret: "secret", ArtifactBackend: config.BackendLocal, GeneratedDir: "/tmp/generated"}
	assert.NoError(t, cfg.Validate())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", (&config.Config{Port: "8080"}).Addr())
	assert.Equal(t, ":8080", (&config.Config{Port: ":8080"}).Addr())
}
