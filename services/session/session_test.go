package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services"
	"github.com/upb/cognate/services/attachments"
	"github.com/upb/cognate/services/catalog"
	"github.com/upb/cognate/services/dispatch"
	"github.com/upb/cognate/services/providers"
)

type echoAdapter struct {
	id       string
	received chan []models.Attachment
}

func (e *echoAdapter) ID() string   { return e.id }
func (e *echoAdapter) Name() string { return e.id }
func (e *echoAdapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{SupportsAttachments: true, UploadStyle: providers.UploadStyleInline}
}
func (e *echoAdapter) Generate(ctx context.Context, req *providers.Request) (*providers.Completion, error) {
	e.received <- req.Attachments
	return &providers.Completion{Content: req.Prompt}, nil
}

type staticResolver struct{}

func (staticResolver) Resolve(context.Context, string) (string, bool) { return "key", true }

func newSession(t *testing.T, specs []models.ProviderSpec, adapters ...providers.Adapter) *Session {
	t.Helper()

	registry := providers.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, registry.Register(a))
	}
	d := dispatch.NewDispatcher(registry, staticResolver{}, zap.NewNop())
	return New(catalog.New(specs), attachments.NewSet(zap.NewNop()), d, zap.NewNop())
}

func TestSession_SendClearsDispatchedAttachments(t *testing.T) {
	adapter := &echoAdapter{id: "openai", received: make(chan []models.Attachment, 1)}
	s := newSession(t, []models.ProviderSpec{{ID: "openai", Name: "OpenAI", Selected: true}}, adapter)

	_, err := s.Attachments().Add([]attachments.File{
		attachments.BytesFile("doc.pdf", models.PDFMimeType, []byte("%PDF")),
	})
	require.NoError(t, err)
	s.SetPrompt("Read this")

	round, err := s.Send(context.Background())
	require.NoError(t, err)
	require.NotNil(t, round)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	results, err := round.Wait(ctx)
	require.NoError(t, err)

	got := <-adapter.received
	require.Len(t, got, 1)
	assert.Equal(t, "doc.pdf", got[0].Name)
	assert.Equal(t, "Read this", results[0].Content)
	assert.Zero(t, s.Attachments().Len())
	assert.Equal(t, "Read this", s.Prompt())
	assert.Same(t, round, s.Current())
}

func TestSession_SendOnlyToSelectedProviders(t *testing.T) {
	openai := &echoAdapter{id: "openai", received: make(chan []models.Attachment, 1)}
	google := &echoAdapter{id: "google", received: make(chan []models.Attachment, 1)}
	s := newSession(t, []models.ProviderSpec{
		{ID: "openai", Selected: false},
		{ID: "google", Selected: true},
	}, openai, google)
	s.SetPrompt("hi")

	round, err := s.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"google"}, round.ProviderIDs())
}

func TestSession_SendNoop(t *testing.T) {
	adapter := &echoAdapter{id: "openai", received: make(chan []models.Attachment, 1)}

	t.Run("empty prompt keeps attachments", func(t *testing.T) {
		s := newSession(t, []models.ProviderSpec{{ID: "openai", Selected: true}}, adapter)
		_, err := s.Attachments().Add([]attachments.File{
			attachments.BytesFile("doc.pdf", models.PDFMimeType, []byte("%PDF")),
		})
		require.NoError(t, err)

		round, err := s.Send(context.Background())
		assert.ErrorIs(t, err, services.ErrEmptyPrompt)
		assert.Nil(t, round)
		assert.Nil(t, s.Current())
		assert.Equal(t, 1, s.Attachments().Len())
	})

	t.Run("no selection", func(t *testing.T) {
		s := newSession(t, []models.ProviderSpec{{ID: "openai", Selected: false}}, adapter)
		s.SetPrompt("hi")

		round, err := s.Send(context.Background())
		assert.ErrorIs(t, err, services.ErrNoProvidersSelected)
		assert.Nil(t, round)
	})
}
