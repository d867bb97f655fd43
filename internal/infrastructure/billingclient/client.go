// Package billingclient is the HTTP adapter for the remote billing
// provisioning service.
package billingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"
	"github.com/SRUJA-N/patient-management-system/internal/domain/billing"
)

type Config struct {
	Address string
	Timeout time.Duration
}

// Client holds one long-lived http.Client; the transport's connection
// pool is reused across calls and released by Close at shutdown.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL:    cfg.Address,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type provisionRequest struct {
	PatientID string `json:"patientId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type provisionResponse struct {
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
}

// Provision creates or updates the billing account for a patient. The
// deadline is enforced per attempt by the caller-supplied context.
// Transport failures and 5xx responses map to Unavailable; 4xx responses
// map to Rejected.
func (c *Client) Provision(ctx context.Context, patientID, name, email string) (*billing.Account, error) {
	body, err := json.Marshal(provisionRequest{
		PatientID: patientID,
		Name:      name,
		Email:     email,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal provision request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accounts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build provision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Unavailable("billing service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, apperror.Unavailable(fmt.Sprintf("billing service returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperror.Rejected(fmt.Sprintf("billing service rejected request (%d): %s", resp.StatusCode, bytes.TrimSpace(msg)), nil)
	}

	var out provisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperror.Rejected("billing service returned malformed response", err)
	}

	return &billing.Account{
		PatientID: patientID,
		AccountID: out.AccountID,
		Status:    out.Status,
	}, nil
}
