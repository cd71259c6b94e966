package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSGateway sends OTP messages through an HTTP SMS provider.
type SMSGateway struct {
	baseURL  string
	token    string
	senderID string
	client   *http.Client
}

// NewSMSGateway builds a gateway client for the provider endpoint.
func NewSMSGateway(baseURL, token, senderID string) *SMSGateway {
	return &SMSGateway{
		baseURL:  baseURL,
		token:    token,
		senderID: senderID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SendOTP posts the code to the provider. Any non-2xx response is treated as
// a delivery failure.
func (g *SMSGateway) SendOTP(ctx context.Context, phoneNumber, code string) error {
	params := url.Values{}
	params.Set("sender", g.senderID)
	params.Set("destination", phoneNumber)
	params.Set("message", fmt.Sprintf("Your verification code is %s", code))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
