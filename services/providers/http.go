package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
)

// PostJSON sends body as JSON and decodes a 2xx response into out.
// Non-2xx responses become a ProviderError carrying the raw body.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out interface{}) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return NewProviderError(provider, "MARSHAL_ERROR", "", 0, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return NewProviderError(provider, "REQUEST_ERROR", "", 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	return do(client, provider, httpReq, out)
}

// UploadFile streams the file at path to url as multipart form data.
// fields are written before the file part, which uses the "file" field.
func UploadFile(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, fields map[string]string, path, filename, mimeType string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	partHeader.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return NewProviderError(provider, "REQUEST_ERROR", "", 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	return do(client, provider, httpReq, out)
}

func do(client *http.Client, provider string, httpReq *http.Request, out interface{}) error {
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return NewProviderError(provider, "HTTP_ERROR", "", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return NewProviderError(provider, "READ_ERROR", "", httpResp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return NewHTTPError(provider, httpResp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return NewProviderError(provider, "UNMARSHAL_ERROR", "", httpResp.StatusCode, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
