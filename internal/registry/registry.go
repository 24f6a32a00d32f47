// Package registry loads the static model registry: the mapping from a
// model identifier to its endpoint, credentials and descriptive metadata.
package registry

import (
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is one configured LLM backend. APIKeyEnv names the environment
// variable holding the credential; local models may leave it empty.
type Model struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	Organization string `yaml:"organization"`
	License      string `yaml:"license"`
	Status       string `yaml:"status"`
}

// APIKey resolves the credential from the environment.
func (m Model) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// ModelInfo is the public projection of a model for the models listing.
type ModelInfo struct {
	ModelID  string `json:"model_id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Status   string `json:"status"`
}

// ModelMeta carries the descriptive fields the aggregator copies onto a
// freshly created stats row.
type ModelMeta struct {
	Organization string
	License      string
}

type registryFile struct {
	Models []Model `yaml:"models"`
}

// Registry is an immutable, load-once view of the configured models.
type Registry struct {
	models map[string]Model
	order  []string
}

// Load reads and parses the YAML registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}

	if len(file.Models) == 0 {
		return nil, fmt.Errorf("invalid model config: no models defined")
	}

	r := &Registry{models: make(map[string]Model, len(file.Models))}
	for _, m := range file.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("invalid model config: model without id")
		}
		if m.Status == "" {
			m.Status = "active"
		}
		if _, exists := r.models[m.ID]; exists {
			return nil, fmt.Errorf("invalid model config: duplicate model id %q", m.ID)
		}
		r.models[m.ID] = m
		r.order = append(r.order, m.ID)
	}

	return r, nil
}

// Get returns the model for id.
func (r *Registry) Get(id string) (Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Active returns all active models in file order.
func (r *Registry) Active() []Model {
	active := make([]Model, 0, len(r.order))
	for _, id := range r.order {
		if m := r.models[id]; m.Status == "active" {
			active = append(active, m)
		}
	}
	return active
}

// List returns the public projection of all active models.
func (r *Registry) List() []ModelInfo {
	active := r.Active()
	infos := make([]ModelInfo, 0, len(active))
	for _, m := range active {
		infos = append(infos, ModelInfo{
			ModelID:  m.ID,
			Name:     m.Name,
			Provider: m.Organization,
			Status:   m.Status,
		})
	}
	return infos
}

// SelectPair picks two distinct active models uniformly at random.
func (r *Registry) SelectPair() (Model, Model, error) {
	active := r.Active()
	if len(active) < 2 {
		return Model{}, Model{}, fmt.Errorf("need at least 2 active models for a battle, found %d", len(active))
	}

	i := rand.IntN(len(active))
	j := rand.IntN(len(active) - 1)
	if j >= i {
		j++
	}

	return active[i], active[j], nil
}

// Names returns model id -> display name for all models.
func (r *Registry) Names() map[string]string {
	names := make(map[string]string, len(r.models))
	for id, m := range r.models {
		names[id] = m.Name
	}
	return names
}

// Metadata returns model id -> descriptive metadata for all models,
// inactive ones included so old votes still resolve.
func (r *Registry) Metadata() map[string]ModelMeta {
	meta := make(map[string]ModelMeta, len(r.models))
	for id, m := range r.models {
		meta[id] = ModelMeta{Organization: m.Organization, License: m.License}
	}
	return meta
}
