package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	snapTransactionsPath = "/snap/v1/transactions"

	maxErrorBodyBytes = 8 << 10
)

var (
	errServerKeyRequired = errors.New("midtrans server key is required")
	errInvalidEnv        = fmt.Errorf("midtrans environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired    = errors.New("midtrans logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://app.sandbox.midtrans.com",
	productionEnv: "https://app.midtrans.com",
}

// TransactionDetails identifies the charge on the gateway side.
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// ItemDetail is one priced line in the Snap popup, including the admin fee row.
type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// CustomerDetails is what the gateway shows on receipts and notifications.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone,omitempty"`
}

// TransactionRequest is the payload for creating a Snap transaction.
type TransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
	EnabledPayments    []string           `json:"enabled_payments,omitempty"`
}

// SnapSession is the usable result of a Snap transaction: the token the
// frontend feeds to snap.js plus the hosted redirect fallback.
type SnapSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Client talks to the Midtrans Snap REST API with centralized auth, logging,
// and error mapping.
type Client struct {
	httpClient  *http.Client
	serverKey   string
	environment string
	baseURL     string
	logger      *logger.Logger
}

// NewClient initializes the Midtrans wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	baseURL := baseURLs[env]
	if override := strings.TrimSpace(cfg.BaseURL); override != "" {
		baseURL = strings.TrimRight(override, "/")
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		serverKey:   serverKey,
		environment: env,
		baseURL:     baseURL,
		logger:      logg,
	}

	logg.Info(ctx, fmt.Sprintf("midtrans client initialized (%s)", env))
	return c, nil
}

// Environment reports the normalized Midtrans environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// ServerKey returns the configured server key. Webhook signature checks need it.
func (c *Client) ServerKey() string {
	if c == nil {
		return ""
	}
	return c.serverKey
}

// CreateTransaction registers the charge with Snap and returns the session.
func (c *Client) CreateTransaction(ctx context.Context, params TransactionRequest) (*SnapSession, error) {
	if strings.TrimSpace(params.TransactionDetails.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction order id is required")
	}
	if params.TransactionDetails.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction gross amount must be positive")
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding snap request")
	}

	url := c.baseURL + snapTransactionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building snap request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// Midtrans Basic auth is the server key as username with an empty password.
	req.SetBasicAuth(c.serverKey, "")

	c.log(ctx, "request", "create_transaction", map[string]any{
		"order_id":     params.TransactionDetails.OrderID,
		"gross_amount": params.TransactionDetails.GrossAmount,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "create_transaction", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "midtrans create transaction failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := readErrorBody(resp.Body)
		c.log(ctx, "error", "create_transaction", map[string]any{
			"error":       detail,
			"status_code": resp.StatusCode,
		})
		// The gateway's status codes describe our merchant integration, not
		// the customer's request. A rejected server key must not surface as a
		// caller 401, so every non-2xx stays a dependency failure with the
		// rejection body preserved.
		return nil, pkgerrors.New(
			pkgerrors.CodeDependency,
			fmt.Sprintf("midtrans create transaction failed (%d): %s", resp.StatusCode, detail),
		)
	}

	var session SnapSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		c.log(ctx, "error", "create_transaction", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding snap response")
	}
	if session.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "midtrans returned an empty snap token")
	}

	c.log(ctx, "response", "create_transaction", map[string]any{
		"order_id": params.TransactionDetails.OrderID,
	})
	return &session, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("midtrans %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("midtrans %s", phase))
	}
}

func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}
	var payload struct {
		ErrorMessages []string `json:"error_messages"`
		StatusMessage string   `json:"status_message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if len(payload.ErrorMessages) > 0 {
			return strings.Join(payload.ErrorMessages, "; ")
		}
		if payload.StatusMessage != "" {
			return payload.StatusMessage
		}
	}
	return strings.TrimSpace(string(raw))
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	}
	return "", errInvalidEnv
}
