package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name entries are stored under.
const DefaultService = "quizsolver"

// Keyring stores settings in the operating system's native keyring
// (Secret Service on Linux, Keychain on macOS, Credential Manager on Windows).
type Keyring struct {
	service string
}

// NewKeyring creates a keyring store. An empty service uses DefaultService.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

// Get returns the values of the requested keys that exist.
func (k *Keyring) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := keyring.Get(k.service, key)
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("keyring get %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// Set stores every entry of values.
func (k *Keyring) Set(ctx context.Context, values map[string]string) error {
	if err := checkKeys(values); err != nil {
		return err
	}
	for key, v := range values {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := keyring.Set(k.service, key, v); err != nil {
			return fmt.Errorf("keyring set %q: %w", key, err)
		}
	}
	return nil
}

// Remove deletes keys.
func (k *Keyring) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := keyring.Delete(k.service, key)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("keyring delete %q: %w", key, err)
		}
	}
	return nil
}

// Available reports whether the OS keyring accepts writes.
func (k *Keyring) Available() bool {
	const probe = "__quizsolver_probe__"
	if err := keyring.Set(k.service, probe, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(k.service, probe)
	return true
}

var _ Store = (*Keyring)(nil)
