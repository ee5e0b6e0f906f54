// Package secrets resolves credentials at startup so they can be handed to
// the clients that need them instead of living in the process environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrSecretNotFound = errors.New("secret not found")

type Provider interface {
	Get(key string) (string, error)
}

// DirProvider reads secrets mounted as files, one file per key.
type DirProvider struct {
	Dir string
}

func (p DirProvider) Get(key string) (string, error) {
	if p.Dir == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	data, err := os.ReadFile(filepath.Join(p.Dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s in %s", ErrSecretNotFound, key, p.Dir)
	}
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// EnvProvider reads the upper-cased key from the environment, so
// "gemini_api_key" is looked up as GEMINI_API_KEY.
type EnvProvider struct{}

func (EnvProvider) Get(key string) (string, error) {
	name := strings.ToUpper(key)
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}

// Chain returns the first secret any provider has.
type Chain []Provider

func (c Chain) Get(key string) (string, error) {
	for _, p := range c {
		v, err := p.Get(key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
}
