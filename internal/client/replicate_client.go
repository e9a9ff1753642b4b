package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/config"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/prediction"
)

// ReplicateClient talks to the Replicate predictions API. It implements
// prediction.JobClient.
type ReplicateClient struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// predictionRequest is the request body for creating a prediction
type predictionRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

// predictionResponse is the wire shape of a Replicate prediction
type predictionResponse struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Output any              `json:"output"`
	Error  *predictionError `json:"error"`
}

type predictionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *predictionError) text() string {
	for _, s := range []string{e.Message, e.Detail, e.Code} {
		if s != "" {
			return s
		}
	}
	return "prediction error"
}

// NewReplicateClient creates a new Replicate API client
func NewReplicateClient(cfg *config.ReplicateConfig) *ReplicateClient {
	return &ReplicateClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
	}
}

// Submit creates a prediction for the given model version and returns its job id
func (c *ReplicateClient) Submit(ctx context.Context, modelID string, input map[string]any) (string, error) {
	version := modelVersion(modelID)

	var pred predictionResponse
	if err := c.post(ctx, "/v1/predictions", predictionRequest{Version: version, Input: input}, &pred); err != nil {
		return "", err
	}
	if pred.Error != nil {
		return "", fmt.Errorf("replicate rejected prediction: %s", pred.Error.text())
	}
	if pred.ID == "" {
		return "", fmt.Errorf("replicate response missing prediction id")
	}
	return pred.ID, nil
}

// Status retrieves the current state of a prediction
func (c *ReplicateClient) Status(ctx context.Context, jobID string) (*prediction.JobStatus, error) {
	var pred predictionResponse
	if err := c.get(ctx, "/v1/predictions/"+jobID, &pred); err != nil {
		return nil, err
	}

	status := &prediction.JobStatus{
		Status: normalizeStatus(pred.Status),
		Output: outputList(pred.Output),
	}
	if pred.Error != nil {
		status.Error = pred.Error.text()
	}
	return status, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *ReplicateClient) IsConfigured() bool {
	return c.apiToken != ""
}

// modelVersion extracts the version hash from an owner/model:version id;
// a bare version hash is passed through unchanged.
func modelVersion(modelID string) string {
	if idx := strings.LastIndex(modelID, ":"); idx != -1 {
		return modelID[idx+1:]
	}
	return modelID
}

// normalizeStatus maps Replicate job states onto the gateway's status enum.
func normalizeStatus(status string) prediction.Status {
	switch strings.ToLower(status) {
	case "starting", "queued":
		return prediction.StatusQueued
	case "processing":
		return prediction.StatusProcessing
	case "succeeded":
		return prediction.StatusSucceeded
	case "failed", "canceled":
		return prediction.StatusFailed
	}
	return prediction.StatusProcessing
}

// outputList flattens the prediction output, which may be a single URL or a
// list of URLs depending on the model.
func outputList(output any) []string {
	var urls []string
	appendOutput := func(value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			urls = append(urls, value)
		}
	}

	switch out := output.(type) {
	case string:
		appendOutput(out)
	case []any:
		for _, item := range out {
			if str, ok := item.(string); ok {
				appendOutput(str)
			}
		}
	}
	return urls
}

// post sends a POST request with JSON body
func (c *ReplicateClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *ReplicateClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *ReplicateClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	log.Printf("[Replicate] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Replicate] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Replicate] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Replicate] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("replicate API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
