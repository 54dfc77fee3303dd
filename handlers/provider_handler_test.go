package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/catalog"
	"github.com/upb/cognate/services/providers"
)

func newProviderRouter(t *testing.T) (http.Handler, *catalog.Catalog) {
	t.Helper()

	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(&stubAdapter{id: models.ProviderOpenAI}))

	cat := catalog.New(nil)
	h := NewProviderHandler(cat, registry, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/providers", h.HandleList)
	r.Patch("/providers/{id}", h.HandleUpdateSettings)
	r.Post("/providers/{id}/toggle", h.HandleToggle)
	return r, cat
}

func TestProviderHandler_List(t *testing.T) {
	router, _ := newProviderRouter(t)

	w := serve(router, http.MethodGet, "/providers", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var views []ProviderView
	decodeData(t, w, &views)
	require.Len(t, views, len(models.KnownProviders))

	assert.Equal(t, models.ProviderOpenAI, views[0].ID)
	assert.True(t, views[0].Supported)
	require.NotNil(t, views[0].Capabilities)
	assert.Equal(t, providers.UploadStyleInline, views[0].Capabilities.UploadStyle)

	assert.Equal(t, models.ProviderAnthropic, views[1].ID)
	assert.False(t, views[1].Supported)
	assert.Nil(t, views[1].Capabilities)
}

func TestProviderHandler_UpdateSettings(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "model and tokens",
			id:             models.ProviderGoogle,
			body:           map[string]interface{}{"model": "gemini-2.5-flash", "max_tokens": 1024},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "negative tokens",
			id:             models.ProviderGoogle,
			body:           map[string]interface{}{"max_tokens": -1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown field",
			id:             models.ProviderGoogle,
			body:           map[string]interface{}{"temperature": 0.2},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			id:             models.ProviderGoogle,
			body:           "{",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown provider",
			id:             "mistral",
			body:           map[string]interface{}{"model": "large"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newProviderRouter(t)

			w := serve(router, http.MethodPatch, "/providers/"+tt.id, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("partial update keeps other settings", func(t *testing.T) {
		router, cat := newProviderRouter(t)

		w := serve(router, http.MethodPatch, "/providers/deepseek", map[string]interface{}{"max_tokens": 2048})
		require.Equal(t, http.StatusOK, w.Code)

		var view ProviderView
		decodeData(t, w, &view)
		assert.Equal(t, 2048, view.Settings.MaxTokens)
		assert.Equal(t, "deepseek-chat", view.Settings.Model)

		stored, err := cat.Get(models.ProviderDeepSeek)
		require.NoError(t, err)
		assert.Equal(t, 2048, stored.Settings.MaxTokens)
	})
}

func TestProviderHandler_Toggle(t *testing.T) {
	router, cat := newProviderRouter(t)

	w := serve(router, http.MethodPost, "/providers/google/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view ProviderView
	decodeData(t, w, &view)
	assert.True(t, view.Selected)

	spec, err := cat.Get(models.ProviderGoogle)
	require.NoError(t, err)
	assert.True(t, spec.Selected)

	w = serve(router, http.MethodPost, "/providers/mistral/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}
