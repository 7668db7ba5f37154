package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"mvdan.cc/sh/v3/syntax"
)

// Configuration file names, in lookup order.
const (
	ConfigJSON = ".dev-flow.json"
	ConfigTOML = ".dev-flow.toml"
)

// maxConfigSize bounds project configuration files.
const maxConfigSize = 64 * 1024

// ErrInvalidConfig indicates a project configuration file that exists but
// cannot be used.
var ErrInvalidConfig = errors.New("invalid project config")

// Commands are the project's own lint and build commands.
type Commands struct {
	Fix   string `json:"fix" toml:"fix"`
	Check string `json:"check" toml:"check"`
	Build string `json:"build,omitempty" toml:"build"`
}

// Config is a project-level override of the platform defaults.
type Config struct {
	Platform string   `json:"platform" toml:"platform"`
	Commands Commands `json:"commands" toml:"commands"`
	Scopes   []string `json:"scopes,omitempty" toml:"scopes"`
	// Source is the file the config was read from.
	Source string `json:"-" toml:"-"`
}

// Validate requires platform, commands.fix and commands.check, and checks
// that every command parses as a shell command line.
func (c *Config) Validate() error {
	var errs []error
	if c.Platform == "" {
		errs = append(errs, errors.New("platform is required"))
	}
	if c.Commands.Fix == "" {
		errs = append(errs, errors.New("commands.fix is required"))
	}
	if c.Commands.Check == "" {
		errs = append(errs, errors.New("commands.check is required"))
	}
	for name, cmd := range map[string]string{
		"commands.fix":   c.Commands.Fix,
		"commands.check": c.Commands.Check,
		"commands.build": c.Commands.Build,
	} {
		if cmd == "" {
			continue
		}
		if err := validateShell(cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func validateShell(cmd string) error {
	_, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(cmd), "")
	if err != nil {
		return fmt.Errorf("not a valid shell command: %w", err)
	}
	return nil
}

// LoadConfig reads .dev-flow.json, or .dev-flow.toml when no JSON file
// exists, from dir. It returns nil, nil when neither file exists, and an
// error wrapping ErrInvalidConfig when the file is unreadable, malformed or
// incomplete.
func LoadConfig(dir string) (*Config, error) {
	for _, name := range []string{ConfigJSON, ConfigTOML} {
		path := filepath.Join(dir, name)
		content, err := readLimited(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}

		var cfg Config
		if name == ConfigJSON {
			err = json.Unmarshal(content, &cfg)
		} else {
			err = toml.Unmarshal(content, &cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		cfg.Source = name
		return &cfg, nil
	}
	return nil, nil
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}
	return os.ReadFile(path)
}

var (
	fixTarget   = regexp.MustCompile(`(?m)^fix\s*:`)
	checkTarget = regexp.MustCompile(`(?m)^check\s*:`)
)

// HasMakefileTargets reports whether dir/Makefile defines both a fix and a
// check target at the start of a line.
func HasMakefileTargets(dir string) bool {
	content, err := readLimited(filepath.Join(dir, "Makefile"))
	if err != nil {
		return false
	}
	return fixTarget.Match(content) && checkTarget.Match(content)
}
