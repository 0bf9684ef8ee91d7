package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Sidecar.Mode != "development" {
		t.Errorf("mode = %q, want development", cfg.Sidecar.Mode)
	}
	if cfg.Sidecar.Strategy != "script" {
		t.Errorf("strategy = %q, want script", cfg.Sidecar.Strategy)
	}
	if cfg.Sidecar.Dir != "yaLLMa3API" {
		t.Errorf("dir = %q, want yaLLMa3API", cfg.Sidecar.Dir)
	}
	if cfg.Sidecar.Entry != "index.js" {
		t.Errorf("entry = %q, want index.js", cfg.Sidecar.Entry)
	}
	if cfg.Sidecar.Interpreter != "node" {
		t.Errorf("interpreter = %q, want node", cfg.Sidecar.Interpreter)
	}
	if !cfg.Sidecar.AutoStart {
		t.Error("auto_start should default to true")
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("level = %q, want INFO", cfg.Logging.Level)
	}
	if !cfg.Watch.Enabled || cfg.Watch.AutoRestart {
		t.Errorf("watch defaults = %+v", cfg.Watch)
	}
}

func TestSetDefaultsAndLoad(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *cfg != *Default() {
		t.Errorf("loaded defaults = %+v, want %+v", cfg, Default())
	}
}

func TestAutoStart(t *testing.T) {
	t.Run("config value when env unset", func(t *testing.T) {
		cfg := Default()
		if !cfg.AutoStart() {
			t.Error("AutoStart should follow the config default")
		}

		cfg.Sidecar.AutoStart = false
		if cfg.AutoStart() {
			t.Error("AutoStart should follow a disabled config value")
		}
	})

	t.Run("env overrides config", func(t *testing.T) {
		cfg := Default()

		t.Setenv(AutoStartEnv, "false")
		if cfg.AutoStart() {
			t.Error("VITE_SPAWN_CORE=false should disable auto-start")
		}

		t.Setenv(AutoStartEnv, "true")
		cfg.Sidecar.AutoStart = false
		if !cfg.AutoStart() {
			t.Error("VITE_SPAWN_CORE=true should enable auto-start")
		}
	})

	t.Run("unparseable env falls back to config", func(t *testing.T) {
		cfg := Default()
		t.Setenv(AutoStartEnv, "maybe")
		if !cfg.AutoStart() {
			t.Error("bad env value should fall back to the config value")
		}
	})
}

func TestLogDir(t *testing.T) {
	t.Run("uses the configured override", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Dir = "/var/log/yashell"
		if got := cfg.LogDir(); got != "/var/log/yashell" {
			t.Errorf("LogDir = %q", got)
		}
	})

	t.Run("defaults under the data directory", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
		cfg := Default()
		want := filepath.Join("/tmp/xdg-data", "yashell", "logs")
		if got := cfg.LogDir(); got != want {
			t.Errorf("LogDir = %q, want %q", got, want)
		}
	})
}

func TestDirs(t *testing.T) {
	t.Run("honors XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		want := filepath.Join("/tmp/xdg-config", "yashell")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir = %q, want %q", got, want)
		}
		if got := ConfigFile(); got != filepath.Join(want, "config.yaml") {
			t.Errorf("ConfigFile = %q", got)
		}
	})

	t.Run("honors XDG_DATA_HOME", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
		want := filepath.Join("/tmp/xdg-data", "yashell")
		if got := DataDir(); got != want {
			t.Errorf("DataDir = %q, want %q", got, want)
		}
	})
}
