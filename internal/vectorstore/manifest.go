package vectorstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const ManifestFile = "vectorstore.yaml"

var ErrNoManifest = errors.New("vectorstore: no manifest in directory")

// Manifest describes a persisted vector store. It is written into the store
// directory by the build and read back by whoever opens the store.
type Manifest struct {
	Collection     string `yaml:"collection"`
	EmbeddingModel string `yaml:"embedding_model"`
	Dimensions     int    `yaml:"dimensions"`
	Documents      int    `yaml:"documents"`
	CreatedAt      string `yaml:"created_at"`
}

func WriteManifest(dir string, m Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, dir)
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Collection == "" {
		return nil, fmt.Errorf("manifest %s: collection is empty", dir)
	}
	return &m, nil
}
