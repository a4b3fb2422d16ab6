package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/pandenem/internal/dataset"
	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/filter"
)

// EnvPrefix prefixes every environment override, e.g. PANDENEM_OUTPUT_DIR.
const EnvPrefix = "PANDENEM"

// Global configuration structure.
type Global struct {
	InputPattern   string `mapstructure:"input_pattern" yaml:"input_pattern"`
	InputEncoding  string `mapstructure:"input_encoding" yaml:"input_encoding"`
	InputDelimiter string `mapstructure:"input_delimiter" yaml:"input_delimiter"`
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	OutputPattern  string `mapstructure:"output_pattern" yaml:"output_pattern"`
	Years          []int  `mapstructure:"years" yaml:"years"`
	ChunkRows      int    `mapstructure:"chunk_rows" yaml:"chunk_rows"`
	OnInvalid      string `mapstructure:"on_invalid" yaml:"on_invalid"`

	// Aggregation
	IncomeTopCap float64 `mapstructure:"income_top_cap" yaml:"income_top_cap"`
	TopN         int     `mapstructure:"top_n" yaml:"top_n"`

	// Filtering rules. Empty lists fall back to the built-in defaults.
	KeepColumns []string          `mapstructure:"keep_columns" yaml:"keep_columns,omitempty"`
	Exclusions  []enem.Exclusion  `mapstructure:"exclusions" yaml:"exclusions,omitempty"`
	Rules       []enem.ColumnRule `mapstructure:"rules" yaml:"rules,omitempty"`
	DropAfter   []string          `mapstructure:"drop_after" yaml:"drop_after,omitempty"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Global {
	f := filter.DefaultConfig()
	return &Global{
		InputPattern:   f.InputPattern,
		InputEncoding:  f.Encoding,
		InputDelimiter: f.Delimiter,
		OutputDir:      f.OutputDir,
		OutputPattern:  f.OutputPattern,
		Years:          f.Years,
		ChunkRows:      f.ChunkRows,
		OnInvalid:      f.OnInvalid,
		IncomeTopCap:   enem.DefaultTopBracketCap,
		TopN:           1000,
		LogLevel:       "info",
	}
}

// DefaultPath returns ~/.pandenem/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pandenem", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.pandenem/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("input_pattern", d.InputPattern)
	v.SetDefault("input_encoding", d.InputEncoding)
	v.SetDefault("input_delimiter", d.InputDelimiter)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("output_pattern", d.OutputPattern)
	v.SetDefault("years", d.Years)
	v.SetDefault("chunk_rows", d.ChunkRows)
	v.SetDefault("on_invalid", d.OnInvalid)
	v.SetDefault("income_top_cap", d.IncomeTopCap)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("keep_columns", []string{})
	v.SetDefault("drop_after", []string{})
	v.SetDefault("log_level", d.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// FilterConfig converts the loaded settings into a pipeline configuration.
func (c *Global) FilterConfig() filter.Config {
	f := filter.DefaultConfig()
	if len(c.Years) > 0 {
		f.Years = append([]int(nil), c.Years...)
		f.Rules = enem.DefaultRules(f.Years)
	}
	if c.InputPattern != "" {
		f.InputPattern = c.InputPattern
	}
	if c.InputEncoding != "" {
		f.Encoding = c.InputEncoding
	}
	if c.InputDelimiter != "" {
		f.Delimiter = c.InputDelimiter
	}
	if c.OutputDir != "" {
		f.OutputDir = c.OutputDir
	}
	if c.OutputPattern != "" {
		f.OutputPattern = c.OutputPattern
	}
	if c.ChunkRows > 0 {
		f.ChunkRows = c.ChunkRows
	}
	if c.OnInvalid != "" {
		f.OnInvalid = c.OnInvalid
	}
	if len(c.KeepColumns) > 0 {
		f.Columns = append([]string(nil), c.KeepColumns...)
	}
	if len(c.Exclusions) > 0 {
		f.Exclusions = append([]enem.Exclusion(nil), c.Exclusions...)
	}
	if len(c.Rules) > 0 {
		f.Rules = append(filter.RuleSet(nil), c.Rules...)
	}
	if len(c.DropAfter) > 0 {
		f.DropAfter = append([]string(nil), c.DropAfter...)
	}
	return f
}

// Level maps log_level to a slog level; unknown names mean info.
func (c *Global) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Set assigns a scalar key from its string form. List keys take comma
// separated values.
func (c *Global) Set(key, val string) error {
	switch key {
	case "input_pattern":
		c.InputPattern = val
	case "input_encoding":
		if _, err := dataset.Encoding(val); err != nil {
			return err
		}
		c.InputEncoding = val
	case "input_delimiter":
		if _, err := dataset.Delimiter(val); err != nil {
			return err
		}
		c.InputDelimiter = val
	case "output_dir":
		c.OutputDir = val
	case "output_pattern":
		c.OutputPattern = val
	case "years":
		years, err := ParseYears(val)
		if err != nil {
			return err
		}
		c.Years = years
	case "chunk_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for chunk_rows: %v", val)
		}
		c.ChunkRows = i
	case "on_invalid":
		if val != filter.OnInvalidAbort && val != filter.OnInvalidSkip {
			return fmt.Errorf("invalid on_invalid: %s (use %s or %s)", val, filter.OnInvalidAbort, filter.OnInvalidSkip)
		}
		c.OnInvalid = val
	case "income_top_cap":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= enem.TopBracketFloor {
			return fmt.Errorf("invalid float for income_top_cap: %v (must exceed %.0f)", val, enem.TopBracketFloor)
		}
		c.IncomeTopCap = f
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = i
	case "keep_columns":
		c.KeepColumns = splitList(val)
	case "drop_after":
		c.DropAfter = splitList(val)
	case "log_level":
		c.LogLevel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// ParseYears reads a comma separated list such as "2019,2020" or a range such
// as "2019-2022".
func ParseYears(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, errA := strconv.Atoi(strings.TrimSpace(lo))
			b, errB := strconv.Atoi(strings.TrimSpace(hi))
			if errA != nil || errB != nil || a > b {
				return nil, fmt.Errorf("invalid year range: %s", part)
			}
			for y := a; y <= b; y++ {
				out = append(out, y)
			}
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year: %s", part)
		}
		out = append(out, y)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no years in %q", s)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
