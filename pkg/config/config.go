// Package config reads cutline configuration files and decodes loose maps
// (request bodies, tool arguments) into job parameters and device profiles.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/cutline/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "cutline.yaml"

// DeviceConfig binds a device name to a profile and a transport address.
type DeviceConfig struct {
	Name    string `yaml:"name" json:"name"`
	Profile string `yaml:"profile" json:"profile"`
	// Address is a device URL understood by stream.ParseAddress.
	Address string `yaml:"address" json:"address"`
	// Faults enables parsing of "error:"/"alarm:" replies.
	Faults bool `yaml:"faults" json:"faults"`
}

// SpoolerConfig registers a command that exec:// device addresses may run.
type SpoolerConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Env         map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// RedisConfig enables the shared job store and device locks.
type RedisConfig struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	TTL      string `yaml:"ttl" json:"ttl"`
}

// TTLDuration parses TTL. Empty means no expiry.
func (r RedisConfig) TTLDuration() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("redis.ttl: %w", err)
	}
	return d, nil
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
}

// File is the structure of cutline.yaml.
type File struct {
	Profiles []domain.DeviceProfile `yaml:"profiles" json:"profiles"`
	// ProfileDir points at a Loam directory of additional profile documents.
	ProfileDir string          `yaml:"profile_dir" json:"profile_dir"`
	Devices    []DeviceConfig  `yaml:"devices" json:"devices"`
	Spoolers   []SpoolerConfig `yaml:"spoolers" json:"spoolers"`
	Job        map[string]any  `yaml:"job" json:"job"`
	Redis      *RedisConfig    `yaml:"redis" json:"redis"`
	Server     ServerConfig    `yaml:"server" json:"server"`
	LogLevel   string          `yaml:"log_level" json:"log_level"`
}

// Load reads a YAML or JSON configuration file, chosen by extension.
// A missing file yields an empty configuration.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes configuration bytes. ext selects JSON (".json") or YAML.
func Parse(data []byte, ext string) (*File, error) {
	var cfg File
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names and references inside the file.
func (f *File) Validate() error {
	profiles := make(map[string]bool, len(f.Profiles))
	for i, p := range f.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profiles[%d]: name is required", i)
		}
		if profiles[p.Name] {
			return fmt.Errorf("profiles[%d]: duplicate profile %q", i, p.Name)
		}
		if _, err := p.Required(); err != nil {
			return fmt.Errorf("profiles[%d]: %w", i, err)
		}
		profiles[p.Name] = true
	}

	spoolers := make(map[string]bool, len(f.Spoolers))
	for i, s := range f.Spoolers {
		if s.Name == "" || s.Command == "" {
			return fmt.Errorf("spoolers[%d]: name and command are required", i)
		}
		if spoolers[s.Name] {
			return fmt.Errorf("spoolers[%d]: duplicate spooler %q", i, s.Name)
		}
		spoolers[s.Name] = true
	}

	devices := make(map[string]bool, len(f.Devices))
	for i, d := range f.Devices {
		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if devices[d.Name] {
			return fmt.Errorf("devices[%d]: duplicate device %q", i, d.Name)
		}
		if d.Profile == "" {
			return fmt.Errorf("devices[%d]: profile is required", i)
		}
		// Profiles from ProfileDir are only known once the library is opened.
		if !profiles[d.Profile] && f.ProfileDir == "" {
			return fmt.Errorf("devices[%d]: unknown profile %q", i, d.Profile)
		}
		if name, ok := strings.CutPrefix(d.Address, "exec://"); ok && !spoolers[name] {
			return fmt.Errorf("devices[%d]: unknown spooler %q", i, name)
		}
		devices[d.Name] = true
	}

	if f.Redis != nil {
		if _, err := f.Redis.TTLDuration(); err != nil {
			return err
		}
	}
	return nil
}

// Params decodes the job block over DefaultParams.
func (f *File) Params() (domain.JobParams, error) {
	return DecodeParams(f.Job)
}

// Profile returns the inline profile with the given name.
func (f *File) Profile(name string) (domain.DeviceProfile, bool) {
	for _, p := range f.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return domain.DeviceProfile{}, false
}
