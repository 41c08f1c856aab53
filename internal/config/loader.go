package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding switches.
const EnvPrefix = "OBJRT_"

// ParseError reports a configuration file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads switches from path, starting from the defaults. The format is
// chosen by extension (.toml, .yaml, .yml, .json). A missing file yields the
// defaults. Environment overrides are applied last and the version constraint
// is checked.
func Load(path string) (Switches, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return s, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := Decode(path, data, &s); err != nil {
				return s, err
			}
		}
	}

	if err := ApplyEnv(&s, os.Environ()); err != nil {
		return s, err
	}

	if err := CheckVersion(s.Requires); err != nil {
		return s, err
	}

	return s, nil
}

// Decode parses data into s using the format implied by path's extension.
func Decode(path string, data []byte, s *Switches) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	case ".json":
		err = json.Unmarshal(data, s)
	default:
		return &ParseError{Path: path, Message: "unsupported config format"}
	}
	if err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// ApplyEnv overlays OBJRT_* variables from environ (KEY=VALUE pairs) onto s.
func ApplyEnv(s *Switches, environ []string) error {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(parts[0], EnvPrefix))
		value := parts[1]

		var target *bool
		switch name {
		case "alloc_checks":
			target = &s.AllocChecks
		case "bounds_checks":
			target = &s.BoundsChecks
		case "memory_checks":
			target = &s.MemoryChecks
		case "magic_checks":
			target = &s.MagicChecks
		case "gc":
			target = &s.GC
		case "memory_limit":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", parts[0], err)
			}
			s.MemoryLimit = n
			continue
		case "requires":
			s.Requires = value
			continue
		default:
			continue
		}

		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", parts[0], err)
		}
		*target = b
	}
	return nil
}

// CheckVersion verifies that RuntimeVersion satisfies constraint. An empty
// constraint always passes.
func CheckVersion(constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	v, err := semver.NewVersion(RuntimeVersion)
	if err != nil {
		return fmt.Errorf("invalid runtime version %q: %w", RuntimeVersion, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("runtime version %s does not satisfy %q", RuntimeVersion, constraint)
	}
	return nil
}
