package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// Defaults holds the shared settings applied to every collection unless
// overridden.
type Defaults struct {
	Provider       string            `yaml:"provider"`
	Model          string            `yaml:"model"`
	Temperature    float64           `yaml:"temperature"`
	BatchSize      int               `yaml:"batchSize"`
	MaxConcurrent  int               `yaml:"maxConcurrent"`
	StaggerSeconds int               `yaml:"staggerSeconds"`
	SourceLanguage string            `yaml:"sourceLanguage"`
	Locales        []string          `yaml:"locales"`
	Glossary       map[string]string `yaml:"glossary"`
}

// WithDefaults fills in default values for optional fields.
func (d *Defaults) WithDefaults() {
	if d.Provider == "" {
		d.Provider = "openai"
	}
	if d.Model == "" {
		d.Model = "gpt-4o-mini"
	}
	if d.BatchSize == 0 {
		d.BatchSize = 20
	}
	if d.MaxConcurrent == 0 {
		d.MaxConcurrent = 4
	}
	if d.StaggerSeconds == 0 {
		d.StaggerSeconds = 5
	}
}

// Collection holds per-collection overrides. Zero values mean "inherit from
// defaults"; Temperature is a pointer so an explicit 0 survives layering.
type Collection struct {
	Path          string            `yaml:"path"`
	Fields        []string          `yaml:"fields"`
	ForceUpdate   bool              `yaml:"forceUpdate"`
	Provider      string            `yaml:"provider"`
	Model         string            `yaml:"model"`
	Temperature   *float64          `yaml:"temperature"`
	BatchSize     int               `yaml:"batchSize"`
	Locales       []string          `yaml:"locales"`
	Glossary      map[string]string `yaml:"glossary"`
	PromptContext string            `yaml:"promptContext"`
}

// File is the on-disk configuration: shared defaults plus one entry per
// translated collection.
type File struct {
	Defaults    Defaults     `yaml:"defaults"`
	Collections []Collection `yaml:"collections"`
}

// Load reads and parses the YAML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	f.Defaults.WithDefaults()
	return &f, nil
}

// Collection returns the entry for the given collection path, if configured.
func (f *File) Collection(path string) (Collection, bool) {
	for _, c := range f.Collections {
		if c.Path == path {
			return c, true
		}
	}
	return Collection{}, false
}

// Locales returns the collection's target locales, falling back to defaults.
func (f *File) Locales(c Collection) []string {
	if len(c.Locales) > 0 {
		return c.Locales
	}
	return f.Defaults.Locales
}

// Resolve layers one collection's overrides onto the shared defaults and
// returns a single resolved snapshot. Pure: neither input is mutated and no
// process-wide state is consulted.
func Resolve(d Defaults, c Collection) translate.ConfigSnapshot {
	d.WithDefaults()
	out := translate.ConfigSnapshot{
		Provider:       d.Provider,
		Model:          d.Model,
		Temperature:    d.Temperature,
		BatchSize:      d.BatchSize,
		MaxConcurrent:  d.MaxConcurrent,
		StaggerSeconds: d.StaggerSeconds,
		SourceLanguage: d.SourceLanguage,
		ForceUpdate:    c.ForceUpdate,
		PromptContext:  c.PromptContext,
		Fields:         c.Fields,
		Glossary:       MergeGlossaries(d.Glossary, c.Glossary),
	}
	if c.Provider != "" {
		out.Provider = c.Provider
	}
	if c.Model != "" {
		out.Model = c.Model
	}
	if c.Temperature != nil {
		out.Temperature = *c.Temperature
	}
	if c.BatchSize > 0 {
		out.BatchSize = c.BatchSize
	}
	return out
}

// MergeGlossaries overlays the collection glossary onto the shared one,
// key by key. Neither input map is mutated.
func MergeGlossaries(shared, override map[string]string) map[string]string {
	if len(shared) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(shared)+len(override))
	for term, preferred := range shared {
		merged[term] = preferred
	}
	for term, preferred := range override {
		merged[term] = preferred
	}
	return merged
}
