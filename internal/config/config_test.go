// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"pkgr-cli/internal/cache"
	"pkgr-cli/pkg/pkgdef"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Locations) != 0 {
		t.Errorf("expected default locations to be empty, got %v", cfg.Locations)
	}

	if !cfg.UserPackages {
		t.Error("expected user packages to be enabled by default")
	}

	if len(cfg.Excludes) != 0 {
		t.Errorf("expected default excludes to be empty, got %v", cfg.Excludes)
	}

	if cfg.CachePath != "" {
		t.Errorf("expected default cache path to be empty, got %q", cfg.CachePath)
	}

	if cfg.Env.Name != pkgdef.DefaultEnvName {
		t.Errorf("expected default env name %q, got %q", pkgdef.DefaultEnvName, cfg.Env.Name)
	}

	if cfg.Env.MaxDepth != pkgdef.DefaultMaxDepth {
		t.Errorf("expected default max depth %d, got %d", pkgdef.DefaultMaxDepth, cfg.Env.MaxDepth)
	}

	if cfg.Env.Strict {
		t.Error("expected strict to be false by default")
	}

	if !cfg.Env.OSFallback {
		t.Error("expected OS fallback to be true by default")
	}

	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected default color scheme to be auto, got %s", cfg.UI.ColorScheme)
	}

	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup only applies on Linux")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	Reset()
	defer Reset()

	override := t.TempDir()
	SetConfigDirOverride(override)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != override {
		t.Errorf("ConfigDir() = %s, want override %s", dir, override)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	Reset()
	defer Reset()

	configDir := filepath.Join(t.TempDir(), AppName)
	SetConfigDirOverride(configDir)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	info, err := os.Stat(configDir)
	if err != nil || !info.IsDir() {
		t.Errorf("EnsureConfigDir() did not create directory %s", configDir)
	}
}

func TestCacheFilePath(t *testing.T) {
	Reset()
	defer Reset()

	configDir := t.TempDir()
	SetConfigDirOverride(configDir)

	cfg := DefaultConfig()
	path, err := cfg.CacheFilePath()
	if err != nil {
		t.Fatalf("CacheFilePath() returned error: %v", err)
	}
	if want := filepath.Join(configDir, cache.DefaultFileName); path != want {
		t.Errorf("CacheFilePath() = %s, want %s", path, want)
	}

	cfg.CachePath = "/var/tmp/custom.cache"
	path, err = cfg.CacheFilePath()
	if err != nil {
		t.Fatalf("CacheFilePath() returned error: %v", err)
	}
	if path != "/var/tmp/custom.cache" {
		t.Errorf("CacheFilePath() = %s, want the configured path", path)
	}
}

func TestLoadAndSave(t *testing.T) {
	Reset()
	defer Reset()

	configDir := filepath.Join(t.TempDir(), AppName)
	SetConfigDirOverride(configDir)

	cfg := &Config{
		Locations:    []RepoRootPath{"/shows/alpha/repo", "/facility/repo"},
		UserPackages: false,
		Excludes:     []ExcludePattern{"legacy_*"},
		CachePath:    "/tmp/pkgr-test.cache",
		Env: EnvSettings{
			Name:        "default",
			MaxDepth:    5,
			Strict:      true,
			OSFallback:  false,
			Passthrough: []string{"HOME", "USER"},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeDark,
			Verbose:     true,
		},
	}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	loaded, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: configDir})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if len(loaded.Locations) != 2 || loaded.Locations[0] != "/shows/alpha/repo" {
		t.Errorf("Locations = %v", loaded.Locations)
	}

	if loaded.UserPackages {
		t.Error("UserPackages = true, want false")
	}

	if len(loaded.Excludes) != 1 || loaded.Excludes[0] != "legacy_*" {
		t.Errorf("Excludes = %v", loaded.Excludes)
	}

	if loaded.CachePath != "/tmp/pkgr-test.cache" {
		t.Errorf("CachePath = %q", loaded.CachePath)
	}

	if loaded.Env.MaxDepth != 5 || !loaded.Env.Strict || loaded.Env.OSFallback {
		t.Errorf("Env = %+v", loaded.Env)
	}

	if len(loaded.Env.Passthrough) != 2 || loaded.Env.Passthrough[0] != "HOME" {
		t.Errorf("Passthrough = %v", loaded.Env.Passthrough)
	}

	if loaded.UI.ColorScheme != ColorSchemeDark || !loaded.UI.Verbose {
		t.Errorf("UI = %+v", loaded.UI)
	}
}

func TestLoadReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	Reset()
	defer Reset()

	SetConfigDirOverride(filepath.Join(t.TempDir(), AppName))

	loaded, resolved, err := loadWithOptions(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty", resolved)
	}
	if !loaded.UserPackages || loaded.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("loaded config is not the defaults: %+v", loaded)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	Reset()
	defer Reset()

	configDir := filepath.Join(t.TempDir(), AppName)
	SetConfigDirOverride(configDir)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}

	cfgPath := filepath.Join(configDir, ConfigFileName+"."+ConfigFileExt)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "user_packages: true") {
		t.Errorf("generated config missing defaults:\n%s", data)
	}

	// A second call must not overwrite an existing file.
	if err := os.WriteFile(cfgPath, []byte("user_packages: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}
	data, _ = os.ReadFile(cfgPath)
	if !strings.Contains(string(data), "user_packages: false") {
		t.Error("CreateDefaultConfig() overwrote an existing file")
	}
}

func TestLoadCustomPathValid(t *testing.T) {
	Reset()
	defer Reset()

	cfgPath := filepath.Join(t.TempDir(), "custom.cue")
	content := `
locations: ["/shows/beta/repo"]
ui: color_scheme: "light"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: cfgPath})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if resolved != cfgPath {
		t.Errorf("resolved path = %q, want %q", resolved, cfgPath)
	}
	if len(loaded.Locations) != 1 || loaded.Locations[0] != "/shows/beta/repo" {
		t.Errorf("Locations = %v", loaded.Locations)
	}
	if loaded.UI.ColorScheme != ColorSchemeLight {
		t.Errorf("ColorScheme = %s", loaded.UI.ColorScheme)
	}
	// Untouched fields keep their defaults.
	if !loaded.UserPackages {
		t.Error("UserPackages default lost during merge")
	}
}

func TestLoadCustomPathNotFound(t *testing.T) {
	Reset()
	defer Reset()

	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
	})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "Verify the file path is correct") {
		t.Errorf("error should carry suggestions: %v", err)
	}
}

func TestLoadCustomPathInvalidCUE(t *testing.T) {
	Reset()
	defer Reset()

	cfgPath := filepath.Join(t.TempDir(), "bad.cue")
	if err := os.WriteFile(cfgPath, []byte("locations: [1, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: cfgPath})
	if err == nil {
		t.Fatal("expected schema violation error")
	}
	if !strings.Contains(err.Error(), "valid CUE syntax") {
		t.Errorf("error should carry suggestions: %v", err)
	}
}

func TestLoadRejectsUnknownColorScheme(t *testing.T) {
	Reset()
	defer Reset()

	cfgPath := filepath.Join(t.TempDir(), "scheme.cue")
	if err := os.WriteFile(cfgPath, []byte("ui: color_scheme: \"neon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: cfgPath}); err == nil {
		t.Fatal("expected error for unknown color scheme")
	}
}

func TestLoadRejectsDuplicateLocations(t *testing.T) {
	Reset()
	defer Reset()

	cfgPath := filepath.Join(t.TempDir(), "dup.cue")
	content := `locations: ["/repo/one", "/repo/one/"]
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: cfgPath})
	if err == nil {
		t.Fatal("expected duplicate location error")
	}
	if !strings.Contains(err.Error(), "duplicate path") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestGetReturnsDefaultOnNoConfig(t *testing.T) {
	Reset()
	defer Reset()

	SetConfigDirOverride(filepath.Join(t.TempDir(), AppName))

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if !cfg.UserPackages {
		t.Error("Get() without a config file should return defaults")
	}
	if LastLoadError() != nil {
		t.Errorf("LastLoadError() = %v, want nil", LastLoadError())
	}
}

func TestGetCachesAcrossCalls(t *testing.T) {
	Reset()
	defer Reset()

	SetConfigDirOverride(filepath.Join(t.TempDir(), AppName))

	if first, second := Get(), Get(); first != second {
		t.Error("Get() should return the cached instance")
	}
}

func TestGetStoresLoadErrorForLaterRetrieval(t *testing.T) {
	Reset()
	defer Reset()

	SetConfigFilePathOverride(filepath.Join(t.TempDir(), "missing.cue"))

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if !cfg.UserPackages {
		t.Error("Get() should fall back to defaults on load failure")
	}
	if LastLoadError() == nil {
		t.Error("LastLoadError() should report the failed load")
	}
}

func TestSetConfigFilePathOverrideClearsCache(t *testing.T) {
	Reset()
	defer Reset()

	SetConfigDirOverride(filepath.Join(t.TempDir(), AppName))
	first := Get()

	cfgPath := filepath.Join(t.TempDir(), "override.cue")
	if err := os.WriteFile(cfgPath, []byte("user_packages: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	SetConfigFilePathOverride(cfgPath)

	second := Get()
	if first == second {
		t.Error("override should invalidate the cached config")
	}
	if second.UserPackages {
		t.Error("override file was not loaded")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	Reset()
	defer Reset()

	cfg := DefaultConfig()
	cfg.Locations = []RepoRootPath{"/facility/repo"}
	cfg.Excludes = []ExcludePattern{"beta_*"}
	cfg.Env.Passthrough = []string{"HOME"}

	cfgPath := filepath.Join(t.TempDir(), "generated.cue")
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: cfgPath})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}
	if len(loaded.Locations) != 1 || loaded.Locations[0] != "/facility/repo" {
		t.Errorf("Locations = %v", loaded.Locations)
	}
	if len(loaded.Env.Passthrough) != 1 || loaded.Env.Passthrough[0] != "HOME" {
		t.Errorf("Passthrough = %v", loaded.Env.Passthrough)
	}
}

func TestConstants(t *testing.T) {
	if AppName != "pkgr" {
		t.Errorf("AppName = %q", AppName)
	}
	if ConfigFileName != "config" {
		t.Errorf("ConfigFileName = %q", ConfigFileName)
	}
	if ConfigFileExt != "cue" {
		t.Errorf("ConfigFileExt = %q", ConfigFileExt)
	}
}
