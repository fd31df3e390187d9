package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/doeshing/macdiet-go/assets"
	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// EnvPrefix namespaces environment overrides (MACDIET_FIX_DEFAULT_RISK_MAX).
const EnvPrefix = "MACDIET"

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "MACDIET_CONFIG"

// FileLoader loads YAML configuration from ~/.config/macdiet/config.yaml
// (overridable via MACDIET_CONFIG) and applies MACDIET_* overrides.
type FileLoader struct {
	overridePath string
	home         string
}

// NewFileLoader builds a new loader. home is the effective home directory
// used for the default path and "~/" expansion.
func NewFileLoader(path, home string) *FileLoader {
	return &FileLoader{overridePath: path, home: home}
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := l.fromViper(v)
	if err != nil {
		return domain.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Defaults returns the built-in configuration without file or environment
// overrides.
func (l *FileLoader) Defaults() (domain.Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(assets.DefaultConfigYAML)); err != nil {
		return domain.Config{}, fmt.Errorf("read default config: %w", err)
	}
	return l.fromViper(v)
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.expand(l.overridePath)
	}
	if custom := strings.TrimSpace(os.Getenv(EnvConfigPath)); custom != "" {
		return l.expand(custom)
	}
	return filepath.Join(l.home, domain.ConfigDirName, domain.ConfigFileName)
}

func (l *FileLoader) fromViper(v *viper.Viper) (domain.Config, error) {
	var cfg domain.Config
	var err error

	if cfg.UI.Color, err = boolKey(v, "ui.color"); err != nil {
		return cfg, err
	}
	cfg.UI.MaxTableRows = v.GetInt("ui.max_table_rows")

	cfg.Scan.DefaultScope = strings.TrimSpace(v.GetString("scan.default_scope"))
	cfg.Scan.Exclude = stringList(v, "scan.exclude")

	risk, err := domain.ParseRiskLevel(v.GetString("fix.default_risk_max"))
	if err != nil {
		return cfg, fmt.Errorf("fix.default_risk_max: %w", err)
	}
	cfg.Fix.DefaultRiskMax = risk
	if cfg.Fix.CommandTimeout, err = durationKey(v, "fix.command_timeout"); err != nil {
		return cfg, err
	}

	if cfg.Privacy.MaskHome, err = boolKey(v, "privacy.mask_home"); err != nil {
		return cfg, err
	}
	if cfg.Report.IncludeEvidence, err = boolKey(v, "report.include_evidence"); err != nil {
		return cfg, err
	}

	if cfg.Audit.Enabled, err = boolKey(v, "audit.enabled"); err != nil {
		return cfg, err
	}
	cfg.Audit.JSONLPath = l.expandOptional(v.GetString("audit.jsonl_path"))
	cfg.Audit.HistoryDB = l.expandOptional(v.GetString("audit.history_db"))
	cfg.Audit.RotateMaxBytes = v.GetInt64("audit.rotate_max_bytes")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ui.color", true)
	v.SetDefault("ui.max_table_rows", domain.DefaultMaxTableRows)
	v.SetDefault("scan.default_scope", "dev")
	v.SetDefault("scan.exclude", []string{"**/node_modules/**"})
	v.SetDefault("fix.default_risk_max", domain.RiskR1.String())
	v.SetDefault("fix.command_timeout", domain.DefaultCommandTimeout.String())
	v.SetDefault("privacy.mask_home", true)
	v.SetDefault("report.include_evidence", false)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.jsonl_path", "")
	v.SetDefault("audit.rotate_max_bytes", domain.DefaultAuditRotateBytes)
	v.SetDefault("audit.history_db", "")
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions)
}

func boolKey(v *viper.Viper, key string) (bool, error) {
	b, err := parseBool(v.GetString(key))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// parseBool accepts the spellings people put in environment variables.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", raw)
}

func durationKey(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// stringList reads a YAML list, or a comma-separated string from the
// environment.
func stringList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return v.GetStringSlice(key)
}

func (l *FileLoader) expandOptional(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return l.expand(path)
}

func (l *FileLoader) expand(path string) string {
	if path == "~" {
		return l.home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(l.home, path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
