package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.trello.com/1"

type TrelloClient struct {
	Client   *http.Client
	APIKey   string
	APIToken string
	BaseURL  string
}

// RequestOptions describes a single Trello call. An empty Method leaves the
// request as GET; a nil Query adds no query string; a nil Body sends no body.
type RequestOptions struct {
	Method string
	Query  map[string]any
	Body   any
}

func NewTrelloClient(key, token, baseURL string, timeout time.Duration) *TrelloClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TrelloClient{
		Client:   &http.Client{Timeout: timeout},
		APIKey:   key,
		APIToken: token,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Request performs one Trello API call and decodes the JSON response into out.
// Non-2xx responses come back as *RequestError.
func (tc *TrelloClient) Request(ctx context.Context, path string, opts RequestOptions, out any) error {
	req, err := tc.newRequest(ctx, path, opts)
	if err != nil {
		return err
	}

	resp, err := tc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	zap.L().Debug("Trello API request",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{StatusCode: resp.StatusCode, Message: ExtractErrorMessage(resp)}
	}

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Trello response: %w", err)
	}
	return nil
}

func (tc *TrelloClient) newRequest(ctx context.Context, path string, opts RequestOptions) (*http.Request, error) {
	apiURL := tc.BaseURL + "/" + path
	if opts.Query != nil {
		apiURL += "?" + EncodeQuery(opts.Query)
	}

	method := http.MethodGet
	if opts.Method != "" {
		method = opts.Method
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", BuildAuthHeader(tc.APIKey, tc.APIToken))

	return req, nil
}
