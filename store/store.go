// Package store persists the user's settings: the API key (or custom
// endpoint URL) and the selected provider.
//
// The contract mirrors a browser's extension storage: Get returns only the
// keys that exist, Set writes a batch, Remove drops keys that may or may not
// exist. Backends must be safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/spetersoncode/quizsolver"
)

// Storage keys.
const (
	KeyAPIKey   = "apiKey"
	KeyProvider = "aiProvider"
)

// ErrEmptyKey is returned when a blank key name is written.
var ErrEmptyKey = errors.New("store: empty key")

// Store is the settings storage contract.
type Store interface {
	// Get returns the values of the requested keys. Missing keys are
	// absent from the map, not errors.
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Set stores every entry of values.
	Set(ctx context.Context, values map[string]string) error

	// Remove deletes keys. Removing a missing key is not an error.
	Remove(ctx context.Context, keys ...string) error
}

// Settings is the typed view of what is stored.
type Settings struct {
	Credential quizsolver.Credential
	Provider   quizsolver.Provider
}

// Load reads the stored credential and provider selection. A missing
// provider falls back to quizsolver.DefaultProvider; a missing key yields
// an empty credential.
func Load(ctx context.Context, s Store) (Settings, error) {
	values, err := s.Get(ctx, KeyAPIKey, KeyProvider)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	provider := quizsolver.ParseProvider(values[KeyProvider])
	return Settings{
		Credential: quizsolver.NewCredential(values[KeyAPIKey], provider),
		Provider:   provider,
	}, nil
}

// Save writes the credential and provider selection.
func Save(ctx context.Context, s Store, raw string, provider quizsolver.Provider) error {
	if provider == "" {
		provider = quizsolver.DefaultProvider
	}
	if err := s.Set(ctx, map[string]string{
		KeyAPIKey:   raw,
		KeyProvider: string(provider),
	}); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func checkKeys(values map[string]string) error {
	for k := range values {
		if k == "" {
			return ErrEmptyKey
		}
	}
	return nil
}
