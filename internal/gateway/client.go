// Package gateway integrates with the MercadoPago-style payment gateway:
// outbound preference creation, authoritative payment lookups, OAuth
// account linking, and inbound webhook signature verification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/config"
)

// Payment status reported by the gateway for an approved transaction
const StatusApproved = "approved"

// Client talks to the payment gateway REST API
type Client struct {
	baseURL      string
	accessToken  string
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// NewClient creates a new gateway client
func NewClient(cfg config.MercadoPagoConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		accessToken:  cfg.AccessToken,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// PreferenceRequest is the outbound checkout preference payload
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	Payer             PreferencePayer  `json:"payer"`
	BackURLs          PreferenceURLs   `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
}

// PreferenceItem is a line item inside a preference
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// PreferencePayer identifies the paying attendee
type PreferencePayer struct {
	Email string `json:"email"`
}

// PreferenceURLs carries the checkout redirect targets
type PreferenceURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// Preference is the gateway's response to preference creation
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the authoritative payment record fetched from the gateway
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id"`
}

// TokenResponse is the OAuth code-exchange response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       int64  `json:"user_id"`
}

// CreatePreference creates a checkout preference and returns the redirect
// target for the attendee.
func (c *Client) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal preference request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build preference request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	var preference Preference
	if err := c.do(httpReq, &preference); err != nil {
		return nil, errors.Wrap(err, "preference creation failed")
	}

	log.Info().
		Str("preference_id", preference.ID).
		Str("external_reference", req.ExternalReference).
		Msg("Checkout preference created")

	return &preference, nil
}

// GetPayment fetches the authoritative payment status by gateway payment id.
// Webhook bodies are never trusted for status; this call is.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build payment request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	var payment Payment
	if err := c.do(httpReq, &payment); err != nil {
		return nil, errors.Wrapf(err, "payment lookup failed for %s", paymentID)
	}
	return &payment, nil
}

// ExchangeCode exchanges an OAuth authorization code for tokens during
// organizer account linking.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	payload := map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"code":          code,
		"redirect_uri":  c.redirectURI,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal token request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build token request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var token TokenResponse
	if err := c.do(httpReq, &token); err != nil {
		return nil, errors.Wrap(err, "OAuth code exchange failed")
	}
	return &token, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "gateway request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("gateway returned %d: %s", res.StatusCode, string(detail))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode gateway response")
	}
	return nil
}
