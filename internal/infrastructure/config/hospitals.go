package config

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/medtrack/backend/internal/domain/hospital"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/spf13/viper"
)

// DefaultHospitalID is the bundled hospital used when none is configured
const DefaultHospitalID = "general"

//go:embed hospitals/*.toml
var bundledHospitals embed.FS

// HospitalRegistry holds the hospital schemas known to the process
type HospitalRegistry struct {
	configs map[string]*hospital.Config
}

// LoadHospitals reads the bundled hospital schemas and then every *.toml file
// in dir, which may override a bundled schema with the same id. An empty dir
// loads the bundled schemas only.
func LoadHospitals(dir string) (*HospitalRegistry, error) {
	reg := &HospitalRegistry{configs: make(map[string]*hospital.Config)}

	entries, err := fs.Glob(bundledHospitals, "hospitals/*.toml")
	if err != nil {
		return nil, fmt.Errorf("list bundled hospitals: %w", err)
	}
	for _, name := range entries {
		data, err := bundledHospitals.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read bundled hospital %s: %w", name, err)
		}
		if err := reg.add(name, data); err != nil {
			return nil, err
		}
	}

	if dir == "" {
		return reg, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("list hospital configs in %s: %w", dir, err)
	}
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read hospital config %s: %w", name, err)
		}
		if err := reg.add(name, data); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ParseHospital decodes and validates one hospital TOML document
func ParseHospital(data []byte) (*hospital.Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse hospital config: %w", err)
	}
	var cfg hospital.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode hospital config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *HospitalRegistry) add(source string, data []byte) error {
	cfg, err := ParseHospital(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	r.configs[cfg.ID] = cfg
	return nil
}

// Get returns the hospital schema with the given id
func (r *HospitalRegistry) Get(id string) (*hospital.Config, error) {
	cfg, ok := r.configs[id]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("Hospital %q not found (known: %s)", id, strings.Join(r.IDs(), ", ")))
	}
	return cfg, nil
}

// IDs returns the known hospital ids, sorted
func (r *HospitalRegistry) IDs() []string {
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
