package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

type AsyncNetworkManager struct {
	Config  *models.MBackendConfig
	BaseURL string
	Client  *http.Client
	Logger  *logger.Logger

	mu    sync.RWMutex
	token string

	// RetryDelay is the base backoff between attempts.
	RetryDelay time.Duration
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MBackendConfig, log *logger.Logger) *AsyncNetworkManager {
	nm := &AsyncNetworkManager{
		Config:     cfg,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		Logger:     log,
		token:      cfg.Token,
		RetryDelay: 500 * time.Millisecond,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	timeout := time.Duration(nm.Config.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) SetToken(token string) {
	nm.mu.Lock()
	nm.token = token
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) currentToken() string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.token
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) buildURL(path string, params map[string]string) (string, error) {
	reqUrl, err := url.Parse(nm.BaseURL + path)
	if err != nil {
		return "", err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqUrl.RawQuery = q.Encode()
	return reqUrl.String(), nil
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries.
func (nm *AsyncNetworkManager) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	finalUrl, err := nm.buildURL(path, params)
	if err != nil {
		return nil, err
	}
	return nm.do(ctx, http.MethodGet, finalUrl, func() (io.Reader, string, error) { return nil, "", nil })
}

// -----------------------------------------------------------------------------

// PostJSON sends body as JSON with retries.
func (nm *AsyncNetworkManager) PostJSON(ctx context.Context, path string, body interface{}) ([]byte, error) {
	finalUrl, err := nm.buildURL(path, nil)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, helpers.NewValidationError("failed to encode request body", err)
		}
	}

	return nm.do(ctx, http.MethodPost, finalUrl, func() (io.Reader, string, error) {
		if payload == nil {
			return nil, "", nil
		}
		return bytes.NewReader(payload), "application/json", nil
	})
}

// -----------------------------------------------------------------------------

// PostFile uploads content as the "file" field of a multipart form. Uploads are
// sent once, without retries.
func (nm *AsyncNetworkManager) PostFile(ctx context.Context, path, filename string, content io.Reader) ([]byte, error) {
	finalUrl, err := nm.buildURL(path, nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return nm.once(ctx, http.MethodPost, finalUrl, bytes.NewReader(buf.Bytes()), w.FormDataContentType())
}

// -----------------------------------------------------------------------------

// Delete performs a DELETE request with retries.
func (nm *AsyncNetworkManager) Delete(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	finalUrl, err := nm.buildURL(path, params)
	if err != nil {
		return nil, err
	}
	return nm.do(ctx, http.MethodDelete, finalUrl, func() (io.Reader, string, error) { return nil, "", nil })
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, method, finalUrl string, body func() (io.Reader, string, error)) ([]byte, error) {
	operation := fmt.Sprintf("%s %s", method, finalUrl)

	res, err := helpers.RetryWithBackoff(ctx, operation, nm.Config.MaxRetries+1, nm.RetryDelay, func() (interface{}, error) {
		reader, contentType, err := body()
		if err != nil {
			return nil, err
		}
		return nm.once(ctx, method, finalUrl, reader, contentType)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) once(ctx context.Context, method, finalUrl string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, finalUrl, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if nm.Config.UserAgent != "" {
		req.Header.Set("User-Agent", nm.Config.UserAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := nm.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		nm.Logger.Info("Request failed: %s %s: %v", method, finalUrl, err)
		return nil, helpers.NewNetworkError(fmt.Sprintf("request to %s failed", req.URL.Path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		nm.Logger.Info("Bad status %d for %s %s", resp.StatusCode, method, req.URL.Path)
		return nil, helpers.NewBackendError(resp.StatusCode, detailMessage(data))
	}

	return data, nil
}

// -----------------------------------------------------------------------------

// detailMessage extracts the backend's {"detail": ...} or {"message": ...} text.
func detailMessage(body []byte) string {
	var payload struct {
		Detail  interface{} `json:"detail"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok && s != "" {
		return s
	}
	return payload.Message
}
