// Package profile loads run profiles: files holding default run options
// for a suite, applied underneath the command line.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-harness/types"
)

// Profile holds the options a profile file may set. Unset fields leave the
// corresponding option alone.
type Profile struct {
	Skip        []string `yaml:"skip" toml:"skip"`
	Ignore      []string `yaml:"ignore" toml:"ignore"` // Names run as if registered ignored
	TestThreads *int     `yaml:"test_threads" toml:"test_threads"`
	Format      string   `yaml:"format" toml:"format"`
	Color       string   `yaml:"color" toml:"color"`
}

// Load reads a profile, picking the decoder from the file extension.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".toml":
		return decodeTOML(data)
	default:
		return nil, fmt.Errorf("unsupported profile extension %q (want .yaml, .yml or .toml)", ext)
	}
}

func decodeYAML(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse yaml profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeTOML(data []byte) (*Profile, error) {
	var p Profile
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse toml profile: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in toml profile: %v", undecoded)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.TestThreads != nil && *p.TestThreads <= 0 {
		return fmt.Errorf("test_threads must be a number > 0 (was %d)", *p.TestThreads)
	}
	if p.Format != "" {
		if _, err := types.ParseFormat(p.Format); err != nil {
			return err
		}
	}
	if p.Color != "" {
		if _, err := types.ParseColor(p.Color); err != nil {
			return err
		}
	}
	return nil
}

// Set records which options were given explicitly on the command line
type Set struct {
	TestThreads bool
	Format      bool
	Color       bool
}

// Apply merges the profile into opts. Explicit command line values win;
// skip and ignore lists are added to the command line ones.
func (p *Profile) Apply(opts types.RunOptions, explicit Set) types.RunOptions {
	if len(p.Skip) > 0 {
		opts.Skip = append(append([]string(nil), opts.Skip...), p.Skip...)
	}
	if len(p.Ignore) > 0 {
		opts.IgnoreNames = append(append([]string(nil), opts.IgnoreNames...), p.Ignore...)
	}
	if p.TestThreads != nil && !explicit.TestThreads {
		opts.TestThreads = *p.TestThreads
	}
	if p.Format != "" && !explicit.Format {
		opts.Format, _ = types.ParseFormat(p.Format)
	}
	if p.Color != "" && !explicit.Color {
		opts.Color, _ = types.ParseColor(p.Color)
	}
	return opts
}
