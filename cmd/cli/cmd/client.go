package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"flakewatch/pkg/api"
)

// Client handles API calls to the flakewatch server.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// ReportExecution sends POST /api/executions to report a test result.
func (c *Client) ReportExecution(req api.ReportExecutionRequest) (*api.ReportExecutionResponse, error) {
	var result api.ReportExecutionResponse
	if err := c.do(http.MethodPost, "/api/executions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDefects sends GET /api/defects to list open defects.
func (c *Client) ListDefects(limit, offset int) ([]api.DefectResponse, error) {
	var result []api.DefectResponse
	path := fmt.Sprintf("/api/defects?limit=%d&offset=%d", limit, offset)
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListFlakyTests sends GET /api/flaky to list flagged flaky tests.
func (c *Client) ListFlakyTests() ([]api.FlakyTestResponse, error) {
	var result []api.FlakyTestResponse
	if err := c.do(http.MethodGet, "/api/flaky", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRules sends GET /api/rules to list workflow rules.
func (c *Client) ListRules() ([]api.RuleResponse, error) {
	var result []api.RuleResponse
	if err := c.do(http.MethodGet, "/api/rules", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) do(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
