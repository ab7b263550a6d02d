package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesYAMLOverridingDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sampling:
  rate_seconds: 2.5
thresholds:
  cpu_pct: 95
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 2.5, cfg.Sampling.RateSeconds)
	require.Equal(t, 95.0, cfg.Thresholds.CPUPct)
	require.Equal(t, Default().Storage, cfg.Storage)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestEnvOverrideTakesPrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  cpu_pct: 80\n"), 0o644))

	t.Setenv("SYSMON_THRESHOLDS_CPU_PCT", "97")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 97.0, cfg.Thresholds.CPUPct)
}

func TestFlagOverrideTakesPrecedenceOverEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  cpu_pct: 80\n"), 0o644))
	t.Setenv("SYSMON_THRESHOLDS_CPU_PCT", "97")

	cfg, err := Load(path, map[string]string{"thresholds.cpu_pct": "99"})
	require.NoError(t, err)
	require.Equal(t, 99.0, cfg.Thresholds.CPUPct)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Sampling.RateSeconds = 0
	require.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Forecast.Algo = "nonsense"
	require.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Features.LongWindow = cfg.Features.ShortWindow
	require.Error(t, Validate(cfg))
}

func TestMergeReloadableAppliesWhitelistOnly(t *testing.T) {
	running := Default()
	edited := Default()
	edited.Thresholds.CPUPct = 95
	edited.Rules.CooldownSeconds = 600
	edited.Forecast.HorizonHours = 48
	edited.Sampling.RateSeconds = 5 // not reloadable

	merged := mergeReloadable(running, edited)
	require.Equal(t, 95.0, merged.Thresholds.CPUPct)
	require.Equal(t, 600.0, merged.Rules.CooldownSeconds)
	require.Equal(t, 48.0, merged.Forecast.HorizonHours)
	require.Equal(t, Default().Sampling.RateSeconds, merged.Sampling.RateSeconds)
}
