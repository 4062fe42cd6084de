// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package email delivers newsletter issues through an HTTP email
// provider API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/newsletter"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
)

type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

// Client implements newsletter.EmailSender against a JSON email API.
// The provider token is held as a Secret so it never appears in logs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sender     string
	authToken  auth.Secret
}

// NewClient creates an email API client. The sender address appears
// as the From header on every delivery.
func NewClient(baseURL, sender string, authToken auth.Secret, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		sender:     sender,
		authToken:  authToken,
	}
}

// Send delivers one email. Transient provider failures (5xx, dropped
// connections) are retried a few times with exponential backoff; a
// 4xx means the request itself is wrong and fails immediately.
func (c *Client) Send(ctx context.Context, recipient newsletter.SubscriberEmail, subject, textBody, htmlBody string) error {
	payload, err := json.Marshal(sendRequest{
		From:     c.sender,
		To:       recipient.String(),
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return oops.Code("EMAIL_ENCODE_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(defaultRetries, retry.NewExponential(defaultRetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.post(ctx, payload)
	})
	if err != nil {
		return oops.Code("EMAIL_SEND_FAILED").
			With("operation", "post email").
			Wrap(err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return oops.Code("EMAIL_REQUEST_FAILED").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Server-Token", c.authToken.Expose())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("email provider returned %d", resp.StatusCode))
	default:
		return fmt.Errorf("email provider rejected the request with %d", resp.StatusCode)
	}
}

var _ newsletter.EmailSender = (*Client)(nil)
