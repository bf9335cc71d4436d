package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CardFileName is the metadata file written at the root of every logged
// model's artifact directory.
const CardFileName = "modelyard.yaml"

// Card is the persisted metadata of a logged model: which flavor loads it,
// its declared signature, flavor options, and the external dependencies it
// delegates to.
type Card struct {
	Flavor       string            `yaml:"flavor"`
	Signature    Signature         `yaml:"signature"`
	Options      map[string]string `yaml:"options,omitempty"`
	Dependencies []string          `yaml:"dependencies,omitempty"`
	CreatedAt    time.Time         `yaml:"created_at"`
}

// WriteCard marshals the card to dir/modelyard.yaml, creating dir if needed.
func WriteCard(dir string, c Card) error {
	if c.Flavor == "" {
		return fmt.Errorf("card: flavor must not be empty")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("card: marshal: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("card: mkdir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CardFileName), data, 0o644); err != nil {
		return fmt.Errorf("card: write: %w", err)
	}
	return nil
}

// ReadCard loads dir/modelyard.yaml.
func ReadCard(dir string) (Card, error) {
	var c Card
	data, err := os.ReadFile(filepath.Join(dir, CardFileName))
	if err != nil {
		return c, fmt.Errorf("card: read: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("card: parse: %w", err)
	}
	if c.Flavor == "" {
		return c, fmt.Errorf("card: missing flavor")
	}
	return c, nil
}

// Option returns a card option, or def when unset.
func (c Card) Option(key, def string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return def
}
