package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eligo/internal/eligibility"
)

// RiskClient calls a risk-scoring service.
type RiskClient struct {
	baseURL string
	client  *http.Client
}

// NewRiskClient constructs a risk client.
func NewRiskClient(baseURL string, timeout time.Duration) (*RiskClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("risk base URL is required")
	}
	return &RiskClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type riskRequest struct {
	Fields map[string]string `json:"fields"`
}

// Assess submits the applicant field map and returns the scored assessment.
func (c *RiskClient) Assess(ctx context.Context, fields map[string]string) (*eligibility.RiskAssessment, error) {
	body, err := json.Marshal(riskRequest{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("marshal risk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assess", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build risk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("risk call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("risk service returned status %d", resp.StatusCode)
	}

	var decoded eligibility.RiskAssessment
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode risk response: %w", err)
	}
	return &decoded, nil
}
