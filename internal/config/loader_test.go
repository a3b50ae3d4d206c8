package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depctl/internal/adapter"
)

// withConfigDirs points the loader at temp user and project roots for
// the duration of a test.
func withConfigDirs(t *testing.T) (userRoot, projectRoot string) {
	t.Helper()
	userRoot = t.TempDir()
	projectRoot = t.TempDir()

	origHome, origWd := osUserHomeDir, osGetwd
	osUserHomeDir = func() (string, error) { return userRoot, nil }
	osGetwd = func() (string, error) { return projectRoot, nil }
	t.Cleanup(func() {
		osUserHomeDir, osGetwd = origHome, origWd
	})
	return userRoot, projectRoot
}

func writeConfigFile(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, configFileName), []byte(content), 0o644))
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	withConfigDirs(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4*time.Second, cfg.Orchestration.DetectionTimeout)
	assert.Equal(t, "auto", cfg.Orchestration.Services["mongodb"].Mode)
	assert.Equal(t, "hold", cfg.Adapters["mongodb"].Readiness.Policy)
	assert.Equal(t, 5*time.Minute, cfg.Initialization.GlobalTimeout)
	assert.Equal(t, uint64(8), cfg.Initialization.Retry.MaxRetries)
}

func TestLoadConfig_UserOverlay(t *testing.T) {
	userRoot, _ := withConfigDirs(t)
	writeConfigFile(t, userRoot, userConfigDir, `
orchestration:
  detectionTimeout: 10s
logging:
  level: debug
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Orchestration.DetectionTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched defaults survive the overlay.
	assert.Equal(t, "docker", cfg.Runtime.Binary)
}

func TestLoadConfig_ProjectOverridesUser(t *testing.T) {
	userRoot, projectRoot := withConfigDirs(t)
	writeConfigFile(t, userRoot, userConfigDir, `
orchestration:
  services:
    mongodb:
      mode: never
`)
	writeConfigFile(t, projectRoot, projectConfigDir, `
orchestration:
  services:
    mongodb:
      mode: always
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "always", cfg.Orchestration.Services["mongodb"].Mode)
	// The merged service keeps fields the overlays never mentioned.
	assert.NotNil(t, cfg.Orchestration.Services["mongodb"].Container)
}

func TestLoadConfig_GlobalProvisioningDefault(t *testing.T) {
	_, projectRoot := withConfigDirs(t)
	writeConfigFile(t, projectRoot, projectConfigDir, `
orchestration:
  provisioning: never
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "never", cfg.Orchestration.Provisioning)
	// Per-service modes still override the global default downstream;
	// the default service keeps its explicit mode here.
	assert.Equal(t, "auto", cfg.Orchestration.Services["mongodb"].Mode)
}

func TestLoadConfig_RejectsInvalidMode(t *testing.T) {
	_, projectRoot := withConfigDirs(t)
	writeConfigFile(t, projectRoot, projectConfigDir, `
orchestration:
  services:
    mongodb:
      mode: sometimes
`)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsMalformedYAML(t *testing.T) {
	_, projectRoot := withConfigDirs(t)
	writeConfigFile(t, projectRoot, projectConfigDir, "orchestration: [not a map")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestStore_ReadinessFor(t *testing.T) {
	gatingOff := false
	cfg := GetDefaultConfig()
	cfg.Adapters["mongodb"] = AdapterConfig{
		Readiness: ReadinessConfig{
			Policy:        "immediate",
			Timeout:       10 * time.Second,
			GatingEnabled: &gatingOff,
		},
	}
	store := NewStore(cfg)

	got := store.ReadinessFor("mongodb")
	assert.Equal(t, adapter.PolicyImmediate, got.Policy)
	assert.Equal(t, 10*time.Second, got.Timeout)
	assert.False(t, got.GatingEnabled)

	// Unknown adapters fall back to defaults.
	got = store.ReadinessFor("unknown")
	assert.Equal(t, adapter.PolicyHold, got.Policy)
	assert.True(t, got.GatingEnabled)
}

func TestStore_SwapIsVisibleToReaders(t *testing.T) {
	store := NewStore(GetDefaultConfig())

	updated := GetDefaultConfig()
	updated.Adapters["mongodb"] = AdapterConfig{
		Readiness: ReadinessConfig{Policy: "degrade"},
	}
	store.Swap(updated)

	assert.Equal(t, adapter.PolicyDegrade, store.ReadinessFor("mongodb").Policy)
}
