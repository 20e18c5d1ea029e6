// internal/clients/admin_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rextra/internal/membership"

	"github.com/google/uuid"
)

// AdminClient talks to a running rextra-admin API.
type AdminClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAdminClient targets baseURL, e.g. http://localhost:8080. The /api/v1
// prefix is added per call.
func NewAdminClient(baseURL string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// StatusError is a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

func (c *AdminClient) Preview(ctx context.Context, cfg membership.Config) (*membership.PreviewResult, error) {
	var res membership.PreviewResult
	if err := c.do(ctx, http.MethodPost, "/membership/preview", cfg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AdminClient) ListTiers(ctx context.Context) ([]membership.Tier, error) {
	var tiers []membership.Tier
	if err := c.do(ctx, http.MethodGet, "/tiers", nil, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (c *AdminClient) GetConfig(ctx context.Context, tierID uuid.UUID) (*membership.TierConfig, error) {
	var tc membership.TierConfig
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tiers/%s/config", tierID), nil, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

func (c *AdminClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
