// Package adapters provides HTTP clients for the perception and risk
// collaborators. They speak the collaborators' JSON contracts and return
// the domain boundary types unchanged.
package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eligo/internal/eligibility"
	"eligo/internal/linkage"
)

// PerceptionClient calls a perception service that performs document field
// extraction.
type PerceptionClient struct {
	baseURL string
	client  *http.Client
}

// NewPerceptionClient constructs a perception client.
func NewPerceptionClient(baseURL string, timeout time.Duration) (*PerceptionClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("perception base URL is required")
	}
	return &PerceptionClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type perceptionRequest struct {
	DocumentBase64 string `json:"document_base64"`
}

type perceptionResponse struct {
	Fields         map[string]string `json:"fields"`
	Confidence     float64           `json:"confidence"`
	QualityScore   float64           `json:"quality_score"`
	TamperDetected bool              `json:"tamper_detected"`
}

// Extract submits the document and returns the extraction result. Missing
// fields stay empty; the collaborator never fabricates values.
func (c *PerceptionClient) Extract(ctx context.Context, document []byte) (*eligibility.PerceptionResult, error) {
	body, err := json.Marshal(perceptionRequest{
		DocumentBase64: base64.StdEncoding.EncodeToString(document),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal perception request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build perception request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perception call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("perception returned status %d", resp.StatusCode)
	}

	var decoded perceptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode perception response: %w", err)
	}

	return &eligibility.PerceptionResult{
		Fields: linkage.Applicant{
			Name:    decoded.Fields["name"],
			DOB:     decoded.Fields["dob"],
			State:   decoded.Fields["state"],
			Address: decoded.Fields["address"],
		},
		Confidence:     decoded.Confidence,
		QualityScore:   decoded.QualityScore,
		TamperDetected: decoded.TamperDetected,
	}, nil
}
