package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// GatewayClient posts single SMS messages to a gatewayapi.com style REST endpoint.
type GatewayClient struct {
	url    string
	apiKey string
	sender string
	client *http.Client
}

func NewGatewayClient(url, apiKey, sender string, timeout time.Duration) *GatewayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		url:    url,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type recipient struct {
	MSISDN uint64 `json:"msisdn"`
}

type sendRequest struct {
	Sender     string      `json:"sender"`
	Message    string      `json:"message"`
	Recipients []recipient `json:"recipients"`
}

type sendResponse struct {
	IDs []int64 `json:"ids"`
}

// Send delivers body to msisdn (country code included, digits only) and
// returns the gateway's message id.
func (c *GatewayClient) Send(ctx context.Context, msisdn, body string) (string, error) {
	number, err := strconv.ParseUint(msisdn, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid msisdn %q: %w", msisdn, err)
	}

	reqBody, err := json.Marshal(sendRequest{
		Sender:     c.sender,
		Message:    body,
		Recipients: []recipient{{MSISDN: number}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(respBody))
	}

	var sr sendResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(respBody))
	}
	if len(sr.IDs) == 0 {
		return "", fmt.Errorf("missing ids in response body=%q", string(respBody))
	}

	return strconv.FormatInt(sr.IDs[0], 10), nil
}
