package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdlive/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrFieldOutOfRange = errors.New("field out of range")
)

// Field length limits.
const (
	MaxPathLength   = 4096
	MaxNameLength   = 100
	MaxLayoutLength = 50
	MaxHostLength   = 253 // RFC 1035
)

// Numeric bounds.
const (
	MaxWorkers     = 64
	MaxThreshold   = 100000
	MaxReadRetries = 50
	MaxTimeout     = 10 * time.Minute
)

// Default port window for the preview server. Ports 5060 and 5061 (SIP) sit
// inside it and are refused by browsers; the server skips them.
const (
	DefaultPortMin     = 5000
	DefaultPortMax     = 5300
	DefaultHost        = "localhost"
	DefaultReadRetries = 3
	DefaultReadDelay   = 100 * time.Millisecond
)

// Config holds all configuration for a preview session.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	Compilers CompilersConfig `yaml:"compilers"`
	Server    ServerConfig    `yaml:"server"`
	Preview   PreviewConfig   `yaml:"preview"`
	Assets    AssetsConfig    `yaml:"assets"`
	Workers   int             `yaml:"workers"` // 0 = auto
}

// CacheConfig tunes the render cache.
type CacheConfig struct {
	Threshold   int           `yaml:"threshold"`   // sweep when the cache holds more entries
	Freshness   time.Duration `yaml:"freshness"`   // entries older than this are swept
	GracePeriod time.Duration `yaml:"gracePeriod"` // no sweep right after creation or reset
}

// CompilersConfig locates the external diagram tools.
type CompilersConfig struct {
	D2Bin       string        `yaml:"d2Bin"`
	D2Layout    string        `yaml:"d2Layout"`
	JavaBin     string        `yaml:"javaBin"`
	PlantUMLJar string        `yaml:"plantumlJar"`
	MermaidBin  string        `yaml:"mermaidBin"`
	Timeout     time.Duration `yaml:"timeout"` // per compile
}

// ServerConfig defines the preview server binding and file reads.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"` // 0 = random in [PortMin, PortMax]
	PortMin     int           `yaml:"portMin"`
	PortMax     int           `yaml:"portMax"`
	ReadRetries int           `yaml:"readRetries"`
	ReadDelay   time.Duration `yaml:"readDelay"`
}

// PreviewConfig defines the browser side.
type PreviewConfig struct {
	Style          string `yaml:"style"`          // style name or CSS file path
	HighlightStyle string `yaml:"highlightStyle"` // chroma style name
	NoBrowser      bool   `yaml:"noBrowser"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate checks field lengths and numeric ranges.
// Called automatically by LoadConfig, but available for callers that
// assemble a Config from flags and environment.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"compilers.d2Bin", c.Compilers.D2Bin, MaxPathLength},
		{"compilers.d2Layout", c.Compilers.D2Layout, MaxLayoutLength},
		{"compilers.javaBin", c.Compilers.JavaBin, MaxPathLength},
		{"compilers.plantumlJar", c.Compilers.PlantUMLJar, MaxPathLength},
		{"compilers.mermaidBin", c.Compilers.MermaidBin, MaxPathLength},
		{"server.host", c.Server.Host, MaxHostLength},
		{"preview.style", c.Preview.Style, MaxPathLength},
		{"preview.highlightStyle", c.Preview.HighlightStyle, MaxNameLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if err := validateIntRange("workers", c.Workers, 0, MaxWorkers); err != nil {
		return err
	}
	if err := validateIntRange("cache.threshold", c.Cache.Threshold, 0, MaxThreshold); err != nil {
		return err
	}
	if c.Cache.Freshness < 0 {
		return fmt.Errorf("%w: cache.freshness must not be negative, got %s", ErrFieldOutOfRange, c.Cache.Freshness)
	}
	if c.Cache.GracePeriod < 0 {
		return fmt.Errorf("%w: cache.gracePeriod must not be negative, got %s", ErrFieldOutOfRange, c.Cache.GracePeriod)
	}
	if c.Compilers.Timeout < 0 || c.Compilers.Timeout > MaxTimeout {
		return fmt.Errorf("%w: compilers.timeout must be between 0 and %s, got %s",
			ErrFieldOutOfRange, MaxTimeout, c.Compilers.Timeout)
	}

	if err := validateIntRange("server.port", c.Server.Port, 0, 65535); err != nil {
		return err
	}
	if err := validateIntRange("server.portMin", c.Server.PortMin, 0, 65535); err != nil {
		return err
	}
	if err := validateIntRange("server.portMax", c.Server.PortMax, 0, 65535); err != nil {
		return err
	}
	if c.Server.PortMin > 0 && c.Server.PortMax > 0 && c.Server.PortMin > c.Server.PortMax {
		return fmt.Errorf("%w: server.portMin (%d) exceeds server.portMax (%d)",
			ErrFieldOutOfRange, c.Server.PortMin, c.Server.PortMax)
	}
	if err := validateIntRange("server.readRetries", c.Server.ReadRetries, 0, MaxReadRetries); err != nil {
		return err
	}
	if c.Server.ReadDelay < 0 {
		return fmt.Errorf("%w: server.readDelay must not be negative, got %s", ErrFieldOutOfRange, c.Server.ReadDelay)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateIntRange(fieldName string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrFieldOutOfRange, fieldName, lo, hi, value)
	}
	return nil
}

// DefaultConfig returns the settings used when no file, env or flag says
// otherwise. Zero values mean "let the component pick".
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        DefaultHost,
			PortMin:     DefaultPortMin,
			PortMax:     DefaultPortMax,
			ReadRetries: DefaultReadRetries,
			ReadDelay:   DefaultReadDelay,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yamlutil.DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, user config dir/go-mdlive/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdlive", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
