package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latestcomment/go-ai-debate/internal/store"
)

func withEnvFile(t *testing.T) {
	t.Helper()
	old := envFile
	envFile = filepath.Join(t.TempDir(), "none.env")
	t.Cleanup(func() { envFile = old })
}

func TestBuildDepsSQLite(t *testing.T) {
	withEnvFile(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "debates.db"))
	t.Setenv("LOG_LEVEL", "error")

	d, err := buildDeps()
	require.NoError(t, err)
	defer d.store.Close()

	_, ok := d.store.(*store.SQLite)
	assert.True(t, ok)
	assert.NotNil(t, d.debates)
	assert.NotNil(t, d.watch)
}

func TestBuildDepsMemory(t *testing.T) {
	withEnvFile(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("DB_PATH", "")
	t.Setenv("SAFETY_REWRITE", "on")
	t.Setenv("LOG_LEVEL", "error")

	d, err := buildDeps()
	require.NoError(t, err)
	_, ok := d.store.(*store.Memory)
	assert.True(t, ok)
	assert.True(t, d.cfg.RewriteEnabled())
}

func TestBuildDepsNeedsAPIKey(t *testing.T) {
	withEnvFile(t)
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := buildDeps()
	assert.Error(t, err)
}

func TestBuildDepsBadPattern(t *testing.T) {
	withEnvFile(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("GUARDRAIL_PATTERNS", "(unclosed")
	t.Setenv("LOG_LEVEL", "error")

	_, err := buildDeps()
	assert.Error(t, err)
}
