package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hanapark/hanapark/internal/config"
	"github.com/hanapark/hanapark/internal/payment/domain"
)

type paymongoLink struct {
	ID         string `json:"id"`
	Attributes struct {
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		CheckoutURL     string `json:"checkout_url"`
		ReferenceNumber string `json:"reference_number"`
		Status          string `json:"status"`
	} `json:"attributes"`
}

type paymongoEnvelope struct {
	Data paymongoLink `json:"data"`
}

type paymongoErrorResponse struct {
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

// PayMongoClient talks to the PayMongo Links API. Base URL, credentials and
// timeout come from the hot-reloadable gateway config.
type PayMongoClient struct {
	holder *config.GatewayConfigHolder
	client *http.Client
}

func NewPayMongoClient(holder *config.GatewayConfigHolder) *PayMongoClient {
	timeout := time.Duration(holder.Get().TimeoutSeconds) * time.Second
	return &PayMongoClient{
		holder: holder,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *PayMongoClient) CreateCharge(ctx context.Context, req CreateChargeRequest) (Charge, error) {
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"amount":           req.Amount,
				"currency":         strings.ToUpper(req.Currency),
				"description":      req.Description,
				"reference_number": req.ReferenceNo,
			},
		},
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/links", body, uuid.NewString())
}

func (c *PayMongoClient) GetCharge(ctx context.Context, externalID string) (Charge, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/links/"+externalID, nil, "")
}

func (c *PayMongoClient) doRequest(
	ctx context.Context,
	method string,
	path string,
	body map[string]any,
	idempotencyKey string,
) (Charge, error) {
	cfg := c.holder.Get()
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return Charge{}, fmt.Errorf("gateway secret key not configured: %w", domain.ErrGatewayUnavailable)
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Charge{}, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+path, reader)
	if err != nil {
		return Charge{}, err
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Charge{}, fmt.Errorf("gateway request failed: %v: %w", err, domain.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Charge{}, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, domain.ErrGatewayUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr paymongoErrorResponse
		detail := "request rejected"
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && len(apiErr.Errors) > 0 {
			detail = apiErr.Errors[0].Detail
		}
		return Charge{}, fmt.Errorf("gateway error (%d): %s", resp.StatusCode, detail)
	}

	var envelope paymongoEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Charge{}, fmt.Errorf("gateway response decode failed: %v: %w", err, domain.ErrGatewayUnavailable)
	}
	return Charge{
		ExternalID:  envelope.Data.ID,
		CheckoutURL: envelope.Data.Attributes.CheckoutURL,
		Status:      envelope.Data.Attributes.Status,
	}, nil
}
