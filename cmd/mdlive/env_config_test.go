package main

// Notes:
// - Tests use t.Setenv() which prevents t.Parallel() at parent level.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdlive/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Run("Tier 1 - Essential", func(t *testing.T) {
		t.Setenv("MDLIVE_CONFIG", "/path/to/config.yaml")
		t.Setenv("MDLIVE_STYLE", "dark")
		t.Setenv("MDLIVE_TIMEOUT", "45s")

		cfg := loadEnvConfig()

		if cfg.ConfigPath != "/path/to/config.yaml" {
			t.Errorf("ConfigPath = %q", cfg.ConfigPath)
		}
		if cfg.Style != "dark" {
			t.Errorf("Style = %q, want dark", cfg.Style)
		}
		if cfg.Timeout != 45*time.Second {
			t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
		}
	})

	t.Run("Tier 2 - Server", func(t *testing.T) {
		t.Setenv("MDLIVE_HOST", "0.0.0.0")
		t.Setenv("MDLIVE_PORT", "5123")
		t.Setenv("MDLIVE_NO_BROWSER", "true")

		cfg := loadEnvConfig()

		if cfg.Host != "0.0.0.0" || cfg.Port != 5123 || !cfg.NoBrowser {
			t.Errorf("server env = %+v", cfg)
		}
	})

	t.Run("Tier 3 - Compilers", func(t *testing.T) {
		t.Setenv("MDLIVE_D2_BIN", "/opt/d2")
		t.Setenv("MDLIVE_D2_LAYOUT", "elk")
		t.Setenv("MDLIVE_JAVA_BIN", "/opt/java")
		t.Setenv("MDLIVE_PLANTUML_JAR", "/opt/plantuml.jar")
		t.Setenv("MDLIVE_MMDC_BIN", "/opt/mmdc")
		t.Setenv("MDLIVE_WORKERS", "4")
		t.Setenv("MDLIVE_LOG_FORMAT", "json")

		cfg := loadEnvConfig()

		if cfg.D2Bin != "/opt/d2" || cfg.D2Layout != "elk" || cfg.JavaBin != "/opt/java" ||
			cfg.PlantUMLJar != "/opt/plantuml.jar" || cfg.MermaidBin != "/opt/mmdc" {
			t.Errorf("compiler env = %+v", cfg)
		}
		if cfg.Workers != 4 {
			t.Errorf("Workers = %d, want 4", cfg.Workers)
		}
		if cfg.LogFormat != "json" {
			t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		t.Setenv("MDLIVE_TIMEOUT", "soon")
		t.Setenv("MDLIVE_PORT", "70000")
		t.Setenv("MDLIVE_WORKERS", "-2")
		t.Setenv("MDLIVE_NO_BROWSER", "maybe")

		cfg := loadEnvConfig()

		if cfg.Timeout != 0 || cfg.Port != 0 || cfg.Workers != 0 || cfg.NoBrowser {
			t.Errorf("invalid values should be ignored, got %+v", cfg)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("MDLIVE_PROT", "5000")
	t.Setenv("MDLIVE_PORT", "5000")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)

	if !strings.Contains(buf.String(), "MDLIVE_PROT") {
		t.Errorf("expected a warning for MDLIVE_PROT, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "MDLIVE_PORT ") {
		t.Errorf("known variable MDLIVE_PORT should not warn, got %q", buf.String())
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Priority: config file > env > defaults
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("fills empty fields", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		applyEnvConfig(&envConfig{
			Style:     "dark",
			Timeout:   time.Minute,
			Host:      "0.0.0.0",
			Port:      5100,
			NoBrowser: true,
			D2Bin:     "/opt/d2",
			Workers:   3,
		}, cfg)

		if cfg.Preview.Style != "dark" || cfg.Compilers.Timeout != time.Minute {
			t.Errorf("preview/compilers = %+v / %+v", cfg.Preview, cfg.Compilers)
		}
		if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 5100 {
			t.Errorf("server = %+v", cfg.Server)
		}
		if !cfg.Preview.NoBrowser || cfg.Compilers.D2Bin != "/opt/d2" || cfg.Workers != 3 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("config file wins", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Preview.Style = "light"
		cfg.Server.Host = "127.0.0.1"
		cfg.Compilers.D2Layout = "dagre"

		applyEnvConfig(&envConfig{Style: "dark", Host: "0.0.0.0", D2Layout: "elk"}, cfg)

		if cfg.Preview.Style != "light" || cfg.Server.Host != "127.0.0.1" || cfg.Compilers.D2Layout != "dagre" {
			t.Errorf("env overrode config file values: %+v", cfg)
		}
	})
}
