package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/upb/cognate/services/providers"
	"github.com/upb/cognate/utils"
)

// stubAdapter answers every prompt with a fixed reply
type stubAdapter struct {
	id    string
	reply string
	err   error
}

func (s *stubAdapter) ID() string   { return s.id }
func (s *stubAdapter) Name() string { return s.id }
func (s *stubAdapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{SupportsAttachments: true, UploadStyle: providers.UploadStyleInline}
}
func (s *stubAdapter) Generate(ctx context.Context, req *providers.Request) (*providers.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &providers.Completion{Content: s.reply}, nil
}

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, id string) (string, bool) {
	key, ok := r[id]
	return key, ok
}

func serve(handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// decodeData unwraps the {"data": ...} envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}
