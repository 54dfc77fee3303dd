package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/providers"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *GoogleAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGoogleAdapter(providers.ProviderConfig{BaseURL: server.URL}, zap.NewNop())
}

func testRequest(prompt string, attachments ...models.Attachment) *providers.Request {
	return &providers.Request{
		Spec:        models.ProviderSpec{ID: models.ProviderGoogle, Settings: models.ProviderSettings{Model: "gemini-test", MaxTokens: 512}},
		Prompt:      prompt,
		APIKey:      "g-key",
		Attachments: attachments,
	}
}

func TestGoogleAdapter_Capabilities(t *testing.T) {
	adapter := NewGoogleAdapter(providers.ProviderConfig{}, zap.NewNop())

	assert.Equal(t, "google", adapter.ID())
	assert.Equal(t, "Google", adapter.Name())
	assert.Equal(t, providers.UploadStyleInline, adapter.Capabilities().UploadStyle)
	assert.True(t, adapter.Capabilities().SupportsAttachments)
}

func TestGoogleAdapter_InlineAttachmentsBeforeText(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var body GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		parts := body.Contents[0].Parts
		require.Len(t, parts, 3)
		require.NotNil(t, parts[0].InlineData)
		assert.Equal(t, models.PDFMimeType, parts[0].InlineData.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("one")), parts[0].InlineData.Data)
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, models.PDFMimeType, parts[1].InlineData.MimeType)
		assert.Equal(t, "Compare", parts[2].Text)
		assert.Equal(t, 512, body.GenerationConfig.MaxOutputTokens)

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Alpha"},{"text":"Beta"}]}},{"content":{"parts":[{"text":"ignored"}]}}],"usageMetadata":{"promptTokenCount":100,"candidatesTokenCount":20}}`))
	})

	completion, err := adapter.Generate(context.Background(), testRequest("Compare",
		models.NewAttachment("one.pdf", models.PDFMimeType, []byte("one")),
		models.NewAttachment("two.PDF", "application/octet-stream", []byte("two")),
	))

	require.NoError(t, err)
	assert.Equal(t, "Alpha\nBeta", completion.Content)
	assert.Equal(t, models.TokenUsage{PromptTokens: 100, CompletionTokens: 20}, completion.Usage)
}

func TestGoogleAdapter_TextOnlyKeepsPrompt(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var body GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents[0].Parts, 1)
		assert.Nil(t, body.Contents[0].Parts[0].InlineData)
		assert.Equal(t, "Hello", body.Contents[0].Parts[0].Text)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi"}]}}],"usage":{"input_tokens":1,"output_tokens":2},"usageMetadata":{"promptTokenCount":50}}`))
	})

	completion, err := adapter.Generate(context.Background(), testRequest("Hello"))

	require.NoError(t, err)
	assert.Equal(t, "Hi", completion.Content)
	assert.Equal(t, models.TokenUsage{PromptTokens: 1, CompletionTokens: 2}, completion.Usage)
}

func TestGoogleAdapter_EmptyPromptWithAttachment(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var body GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		parts := body.Contents[0].Parts
		assert.Equal(t, providers.DefaultInstruction, parts[len(parts)-1].Text)
		w.Write([]byte(`{"candidates":[]}`))
	})

	completion, err := adapter.Generate(context.Background(), testRequest("", models.NewAttachment("a.pdf", "", []byte("a"))))

	require.NoError(t, err)
	assert.Empty(t, completion.Content)
}

func TestGoogleAdapter_ArrayErrorBody(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`[{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}]`))
	})

	outcome := providers.Call(context.Background(), adapter, testRequest("hi"), zap.NewNop())

	assert.Equal(t, models.ResultStatusError, outcome.Status)
	assert.Equal(t, "API key not valid", outcome.Error)
	assert.Zero(t, outcome.ElapsedMillis)
}
