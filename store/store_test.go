package store

import (
	"context"
	"sync"
	"testing"

	"github.com/spetersoncode/quizsolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	keyring.MockInit()
	return map[string]Store{
		"memory":  NewMemory(),
		"keyring": NewKeyring("quizsolver-test"),
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.Get(ctx, KeyAPIKey)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, s.Set(ctx, map[string]string{KeyAPIKey: "sk-123", KeyProvider: "chatgpt"}))

			got, err = s.Get(ctx, KeyAPIKey, KeyProvider, "missing")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{KeyAPIKey: "sk-123", KeyProvider: "chatgpt"}, got)

			require.NoError(t, s.Remove(ctx, KeyAPIKey, "missing"))

			got, err = s.Get(ctx, KeyAPIKey, KeyProvider)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{KeyProvider: "chatgpt"}, got)
		})
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Set(context.Background(), map[string]string{"": "x"})
			assert.ErrorIs(t, err, ErrEmptyKey)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(context.Background(), NewMemory())
	require.NoError(t, err)

	assert.Equal(t, quizsolver.ProviderGemini, settings.Provider)
	assert.True(t, settings.Credential.Empty())
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, Save(ctx, s, "sk-abcdefghijklmnop", quizsolver.ProviderChatGPT))
	settings, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, quizsolver.ProviderChatGPT, settings.Provider)
	assert.Equal(t, quizsolver.ProviderChatGPT, settings.Credential.Provider)

	// A URL is a custom endpoint whatever provider was selected.
	require.NoError(t, Save(ctx, s, "https://llm.internal.example.com/api", quizsolver.ProviderChatGPT))
	settings, err = Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, quizsolver.ProviderChatGPT, settings.Provider)
	assert.Equal(t, quizsolver.ProviderCustom, settings.Credential.Provider)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, map[string]string{KeyAPIKey: "k"})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(ctx, KeyAPIKey)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "k", got[KeyAPIKey])
}

func TestKeyringCancelledContext(t *testing.T) {
	keyring.MockInit()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyring("").Get(ctx, KeyAPIKey)
	assert.ErrorIs(t, err, context.Canceled)
}
