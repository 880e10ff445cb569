package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdlive/internal/config"
)

// envConfig holds configuration from environment variables.
// Lets editors and CI set defaults without a YAML file.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MDLIVE_CONFIG: config file name or path
	Style      string        // MDLIVE_STYLE: CSS style name or path
	Timeout    time.Duration // MDLIVE_TIMEOUT: per-diagram timeout

	// Tier 2 - Server
	Host      string // MDLIVE_HOST: listen host
	Port      int    // MDLIVE_PORT: listen port
	NoBrowser bool   // MDLIVE_NO_BROWSER: do not open a browser

	// Tier 3 - Compilers
	D2Bin       string // MDLIVE_D2_BIN: d2 executable
	D2Layout    string // MDLIVE_D2_LAYOUT: d2 layout engine
	JavaBin     string // MDLIVE_JAVA_BIN: java executable
	PlantUMLJar string // MDLIVE_PLANTUML_JAR: plantuml.jar path
	MermaidBin  string // MDLIVE_MMDC_BIN: mermaid-cli executable
	Workers     int    // MDLIVE_WORKERS: concurrent compilers
	LogFormat   string // MDLIVE_LOG_FORMAT: text or json
}

// knownEnvVars lists valid MDLIVE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MDLIVE_CONFIG":  true,
	"MDLIVE_STYLE":   true,
	"MDLIVE_TIMEOUT": true,
	// Tier 2 - Server
	"MDLIVE_HOST":       true,
	"MDLIVE_PORT":       true,
	"MDLIVE_NO_BROWSER": true,
	// Tier 3 - Compilers
	"MDLIVE_D2_BIN":       true,
	"MDLIVE_D2_LAYOUT":    true,
	"MDLIVE_JAVA_BIN":     true,
	"MDLIVE_PLANTUML_JAR": true,
	"MDLIVE_MMDC_BIN":     true,
	"MDLIVE_WORKERS":      true,
	"MDLIVE_LOG_FORMAT":   true,
	"MDLIVE_CONTAINER":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("MDLIVE_CONFIG"),
		Style:       os.Getenv("MDLIVE_STYLE"),
		Host:        os.Getenv("MDLIVE_HOST"),
		D2Bin:       os.Getenv("MDLIVE_D2_BIN"),
		D2Layout:    os.Getenv("MDLIVE_D2_LAYOUT"),
		JavaBin:     os.Getenv("MDLIVE_JAVA_BIN"),
		PlantUMLJar: os.Getenv("MDLIVE_PLANTUML_JAR"),
		MermaidBin:  os.Getenv("MDLIVE_MMDC_BIN"),
		LogFormat:   os.Getenv("MDLIVE_LOG_FORMAT"),
	}

	if timeout := os.Getenv("MDLIVE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if port := os.Getenv("MDLIVE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p <= 65535 {
			cfg.Port = p
		}
	}
	if workers := os.Getenv("MDLIVE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if nb := os.Getenv("MDLIVE_NO_BROWSER"); nb != "" {
		cfg.NoBrowser, _ = strconv.ParseBool(nb)
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDLIVE_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MDLIVE_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Style != "" && cfg.Preview.Style == "" {
		cfg.Preview.Style = env.Style
	}
	if env.Timeout > 0 && cfg.Compilers.Timeout == 0 {
		cfg.Compilers.Timeout = env.Timeout
	}

	// Host has a default, so the environment overrides it unless the file
	// changed it.
	if env.Host != "" && cfg.Server.Host == config.DefaultHost {
		cfg.Server.Host = env.Host
	}
	if env.Port != 0 && cfg.Server.Port == 0 {
		cfg.Server.Port = env.Port
	}
	if env.NoBrowser {
		cfg.Preview.NoBrowser = true
	}

	if env.D2Bin != "" && cfg.Compilers.D2Bin == "" {
		cfg.Compilers.D2Bin = env.D2Bin
	}
	if env.D2Layout != "" && cfg.Compilers.D2Layout == "" {
		cfg.Compilers.D2Layout = env.D2Layout
	}
	if env.JavaBin != "" && cfg.Compilers.JavaBin == "" {
		cfg.Compilers.JavaBin = env.JavaBin
	}
	if env.PlantUMLJar != "" && cfg.Compilers.PlantUMLJar == "" {
		cfg.Compilers.PlantUMLJar = env.PlantUMLJar
	}
	if env.MermaidBin != "" && cfg.Compilers.MermaidBin == "" {
		cfg.Compilers.MermaidBin = env.MermaidBin
	}
	if env.Workers > 0 && cfg.Workers == 0 {
		cfg.Workers = env.Workers
	}
}
