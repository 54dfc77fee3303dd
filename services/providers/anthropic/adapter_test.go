package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/providers"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*AnthropicAdapter, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tempDir := t.TempDir()
	return NewAnthropicAdapter(providers.ProviderConfig{BaseURL: server.URL, TempDir: tempDir}, zap.NewNop()), tempDir
}

func testRequest(prompt string, attachments ...models.Attachment) *providers.Request {
	return &providers.Request{
		Spec:        models.ProviderSpec{ID: models.ProviderAnthropic, Settings: models.ProviderSettings{Model: "claude-test", MaxTokens: 256}},
		Prompt:      prompt,
		APIKey:      "ak-test",
		Attachments: attachments,
	}
}

func TestAnthropicAdapter_TextOnly(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("anthropic-beta"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body.Model)
		assert.Equal(t, 256, body.MaxTokens)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "Summarize", body.Messages[0].Content)

		w.Write([]byte(`{"type":"message","content":[{"type":"text","text":"First"},{"type":"tool_use"},{"type":"text","text":"Second"}],"usage":{"input_tokens":9,"output_tokens":3}}`))
	})

	completion, err := adapter.Generate(context.Background(), testRequest("Summarize"))

	require.NoError(t, err)
	assert.Equal(t, "First\nSecond", completion.Content)
	assert.Equal(t, models.TokenUsage{PromptTokens: 9, CompletionTokens: 3}, completion.Usage)
}

func TestAnthropicAdapter_DocumentBlocksBeforeText(t *testing.T) {
	adapter, tempDir := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, filesBeta, r.Header.Get("anthropic-beta"))

		switch r.URL.Path {
		case "/v1/files":
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "report.PDF", header.Filename)
			assert.Equal(t, models.PDFMimeType, header.Header.Get("Content-Type"))
			assert.Equal(t, "pdf-bytes", string(data))
			w.Write([]byte(`{"id":"file_011","type":"file"}`))
		case "/v1/messages":
			var body struct {
				Messages []struct {
					Content []ContentBlock `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Messages, 1)
			blocks := body.Messages[0].Content
			require.Len(t, blocks, 2)
			assert.Equal(t, "document", blocks[0].Type)
			assert.Equal(t, &DocumentSource{Type: "file", FileID: "file_011"}, blocks[0].Source)
			assert.Equal(t, ContentBlock{Type: "text", Text: "Read this"}, blocks[1])
			w.Write([]byte(`{"type":"message","content":[{"type":"text","text":"done"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	att := models.NewAttachment("report.PDF", "application/octet-stream", []byte("pdf-bytes"))
	completion, err := adapter.Generate(context.Background(), testRequest("Read this", att))

	require.NoError(t, err)
	assert.Equal(t, "done", completion.Content)
	assert.Equal(t, models.TokenUsage{}, completion.Usage)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnthropicAdapter_ErrorResponse(t *testing.T) {
	adapter, tempDir := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/files" {
			w.Write([]byte(`{"id":"file_1"}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Rate limited"}}`))
	})

	att := models.NewAttachment("a.pdf", models.PDFMimeType, []byte("x"))
	outcome := providers.Call(context.Background(), adapter, testRequest("hi", att), zap.NewNop())

	assert.Equal(t, models.ResultStatusError, outcome.Status)
	assert.Equal(t, "Rate limited", outcome.Error)
	assert.Zero(t, outcome.ElapsedMillis)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
