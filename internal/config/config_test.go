package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/quill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func key(b byte) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(string(b), 32)))
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := config.Load(config.New(""))
	require.NoError(t, err)

	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(home, ".local", "share", "quill"), cfg.Store.Dir)
	assert.Equal(t, time.Second, cfg.Autosave.Debounce)
	assert.Equal(t, time.Minute, cfg.Autosave.Interval)
	assert.Equal(t, 50, cfg.Workflow.MinParagraphWords)
	assert.InDelta(t, 0.5, cfg.Workflow.MinDraftedRatio, 1e-9)
	assert.Equal(t, 3, cfg.Workflow.MinEdits)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Session)
}

func TestLoad_FileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	yaml := `
store:
  backend: redis
  redis:
    addr: cache:6379
    db: 2
    lock: true
autosave:
  debounce: 250ms
  interval: 0s
workflow:
  min_edits: 5
  min_drafted_ratio: 1
session: tab-7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quill.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load(config.New(""))
	require.NoError(t, err)

	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "quill:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Autosave.Debounce)
	assert.Zero(t, cfg.Autosave.Interval)
	assert.Equal(t, 5, cfg.Workflow.MinEdits)
	assert.Equal(t, 50, cfg.Workflow.MinParagraphWords)
	assert.Equal(t, "tab-7", cfg.Session)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("QUILL_STORE_BACKEND", "sqlite")
	t.Setenv("QUILL_STORE_SQLITE_PATH", "/tmp/q.db")
	t.Setenv("QUILL_WORKFLOW_MIN_PARAGRAPH_WORDS", "10")
	t.Setenv("QUILL_LOG_LEVEL", "debug")
	t.Setenv("QUILL_STORE_ENCRYPTION_KEY", key('k'))

	cfg, err := config.Load(config.New(""))
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/q.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 10, cfg.Workflow.MinParagraphWords)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, key('k'), cfg.Store.EncryptionKey)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0o600))

	cfg, err := config.Load(config.New(path))
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)

	_, err = config.Load(config.New(filepath.Join(dir, "missing.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	cases := map[string]string{
		"QUILL_STORE_BACKEND":              "etcd",
		"QUILL_STORE_ENCRYPTION_KEY":       "c2hvcnQ=",
		"QUILL_AUTOSAVE_DEBOUNCE":          "0s",
		"QUILL_AUTOSAVE_INTERVAL":          "-1s",
		"QUILL_WORKFLOW_MIN_DRAFTED_RATIO": "1.5",
		"QUILL_WORKFLOW_MIN_EDITS":         "-1",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			_, err := config.Load(config.New(""))
			assert.Error(t, err)
		})
	}
}

func TestDecodeKey(t *testing.T) {
	k, err := config.DecodeKey(key('a'))
	require.NoError(t, err)
	assert.Len(t, k, 32)

	_, err = config.DecodeKey("not base64!")
	assert.Error(t, err)
}
