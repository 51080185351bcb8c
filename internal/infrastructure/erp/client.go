package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/infrastructure/resilience"
)

// Client delivers validation results to the ERP ingestion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type pushPayload struct {
	RunID       string                   `json:"run_id"`
	GroupID     string                   `json:"group_id"`
	CompletedAt time.Time                `json:"completed_at"`
	Result      *domain.ValidationResult `json:"result"`
}

func (c *Client) PushResult(ctx context.Context, run *domain.ValidationRun) error {
	payload := pushPayload{
		RunID:       run.ID,
		GroupID:     run.GroupID,
		CompletedAt: run.UpdatedAt,
		Result:      run.Result,
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/v1/validation-results", payload)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "erp.push", call, classifyERPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded("push validation result", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erp push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "push",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	return nil
}
