package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFake(id string) *fakeAdapter {
	return &fakeAdapter{id: id, generate: func(ctx context.Context, req *Request) (*Completion, error) {
		return &Completion{}, nil
	}}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(newFake("b")))
	require.NoError(t, registry.Register(newFake("a")))

	adapter, err := registry.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", adapter.ID())

	_, err = registry.Get("missing")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	assert.Equal(t, []string{"a", "b"}, registry.List())
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_RegisterErrors(t *testing.T) {
	registry := NewRegistry()

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(newFake("")))

	require.NoError(t, registry.Register(newFake("a")))
	assert.ErrorIs(t, registry.Register(newFake("a")), ErrProviderAlreadyRegistered)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newFake("a")))

	require.NoError(t, registry.Unregister("a"))
	assert.ErrorIs(t, registry.Unregister("a"), ErrProviderNotFound)
	assert.Zero(t, registry.Count())
}

func TestRegistry_Capabilities(t *testing.T) {
	registry := NewRegistry()
	capable := newFake("doc")
	capable.capabilities = Capabilities{SupportsAttachments: true, UploadStyle: UploadStyleReference}
	require.NoError(t, registry.Register(capable))
	require.NoError(t, registry.Register(newFake("text")))

	table := registry.Capabilities()

	assert.True(t, table["doc"].SupportsAttachments)
	assert.False(t, table["text"].SupportsAttachments)
}

func TestRegistryBuilder_Build(t *testing.T) {
	var seen ProviderConfig
	registry, err := NewRegistryBuilder(zap.NewNop()).
		WithBuilder("a", func(config ProviderConfig, logger *zap.Logger) Adapter {
			seen = config
			return newFake("a")
		}).
		WithBuilder("b", func(config ProviderConfig, logger *zap.Logger) Adapter {
			return newFake("b")
		}).
		Build(map[string]ProviderConfig{"a": {BaseURL: "http://a"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, registry.List())
	assert.Equal(t, "http://a", seen.BaseURL)
}

func TestRegistryBuilder_MismatchedID(t *testing.T) {
	_, err := NewRegistryBuilder(zap.NewNop()).
		WithBuilder("a", func(config ProviderConfig, logger *zap.Logger) Adapter {
			return newFake("z")
		}).
		Build(nil)

	assert.Error(t, err)
}
