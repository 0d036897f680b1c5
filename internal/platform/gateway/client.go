package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal client for the CallMeBot-style messaging gateway.
// The gateway answers with a free-text body and returns 200 even on some
// failures, so callers must classify the body, not the status code.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SendWhatsApp delivers text to phone through the primary whatsapp.php
// endpoint and returns the raw response body.
func (c *Client) SendWhatsApp(ctx context.Context, phone, apikey, text string) (string, error) {
	params := url.Values{
		"phone":  {phone},
		"text":   {text},
		"apikey": {apikey},
	}
	return c.get(ctx, "/whatsapp.php", params)
}

// SendText delivers message through the alternate text.php endpoint, which
// takes a different parameter shape. Used by the fallback chain.
func (c *Client) SendText(ctx context.Context, phone, apikey, message string) (string, error) {
	params := url.Values{
		"phone":   {phone},
		"message": {message},
		"apikey":  {apikey},
	}
	return c.get(ctx, "/text.php", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (string, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("gateway response read: %w", err)
	}

	return string(body), nil
}

// successMarkers is the allow-list of body fragments the gateway emits on
// accepted messages.
var successMarkers = []string{
	"Message queued",
	"Message Sent",
	"WhatsApp message sent",
}

// Classify reports whether body contains a known success marker. Absence
// of a marker is a failure even with a 2xx status.
func Classify(body string) bool {
	for _, marker := range successMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
