// Package mpesa talks to the Safaricom Daraja API: OAuth token issuance,
// STK push initiation and status queries, plus parsing of the asynchronous
// result callback.  Everything gateway-specific stays inside this package;
// the rest of the system only sees InitiateResult and CallbackResult.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jkamau/filamu/internal/config"
)

// phoneRe matches a Kenyan MSISDN in international format without the
// leading plus: country code 254 followed by nine subscriber digits.
var phoneRe = regexp.MustCompile(`^254\d{9}$`)

// ValidPhone reports whether the given string is an acceptable M-Pesa
// subscriber number.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// InitiateResult is the outcome of an STK push attempt.  Accepted means the
// gateway queued the push on the subscriber's handset; the actual payment
// outcome arrives later via callback.  When Accepted is false, Error holds
// a message safe to show the user.
type InitiateResult struct {
	Accepted          bool
	CheckoutRequestID string
	Description       string
	Error             string
}

// StatusResult is the answer to an STK push status query, used by
// out-of-band reconciliation of stale pending transactions.
type StatusResult struct {
	Succeeded  bool
	ResultCode string
	ResultDesc string
}

// Client issues requests against a single Daraja app's credentials.
type Client struct {
	cfg  config.MpesaConfig
	http *http.Client
	now  func() time.Time
}

// NewClient builds a Client.  Credentials are not validated here; an
// unconfigured client reports the problem per initiation attempt so the bot
// can keep serving browse flows.
func NewClient(cfg config.MpesaConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		now:  time.Now,
	}
}

func (c *Client) configured() bool {
	return c.cfg.ConsumerKey != "" && c.cfg.ConsumerSecret != "" &&
		c.cfg.PassKey != "" && c.cfg.ShortCode != ""
}

// token fetches an OAuth access token using the consumer key/secret pair.
func (c *Client) token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("oauth status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("oauth decode: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("oauth response missing access_token")
	}
	return out.AccessToken, nil
}

// timestamp renders the Daraja YYYYMMDDHHmmss timestamp in UTC.
func (c *Client) timestamp() string {
	return c.now().UTC().Format("20060102150405")
}

// password is base64(shortcode + passkey + timestamp), per the STK spec.
func (c *Client) password(ts string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.PassKey + ts))
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// Initiate sends an STK push for the given amount with the transaction code
// as the account reference, which is how the later callback finds its way
// back to the ledger row.  This is a hard error boundary: configuration,
// network and provider failures all come back as Accepted=false with a
// human-readable Error, never as a Go error.
func (c *Client) Initiate(ctx context.Context, phone string, amount decimal.Decimal, code string) InitiateResult {
	if !c.configured() {
		return InitiateResult{Error: "Payments are not configured yet. Please try again later."}
	}
	tok, err := c.token(ctx)
	if err != nil {
		log.Errorf("mpesa: token fetch failed: %v", err)
		return InitiateResult{Error: "Failed to connect to M-Pesa. Please try again later."}
	}

	ts := c.timestamp()
	// Daraja only accepts whole-shilling amounts.
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.IntPart(),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  code,
		TransactionDesc:   "Payment for transaction " + code,
	}

	var out struct {
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		ErrorMessage        string `json:"errorMessage"`
	}
	if err := c.post(ctx, tok, "/mpesa/stkpush/v1/processrequest", payload, &out); err != nil {
		log.Errorf("mpesa: stk push failed for %s: %v", code, err)
		return InitiateResult{Error: "Unable to initiate the payment request. Please try again later."}
	}
	if out.ResponseCode != "0" {
		desc := out.ResponseDescription
		if desc == "" {
			desc = out.ErrorMessage
		}
		log.Warnf("mpesa: stk push rejected for %s: %s", code, desc)
		return InitiateResult{Error: "Payment request was rejected: " + desc}
	}
	return InitiateResult{
		Accepted:          true,
		CheckoutRequestID: out.CheckoutRequestID,
		Description:       out.ResponseDescription,
	}
}

// QueryStatus asks the gateway for the outcome of a previously initiated
// STK push.  It backs reconciliation of transactions whose callback never
// arrived; the bot itself does not call it.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (StatusResult, error) {
	if !c.configured() {
		return StatusResult{}, fmt.Errorf("mpesa not configured")
	}
	tok, err := c.token(ctx)
	if err != nil {
		return StatusResult{}, err
	}
	ts := c.timestamp()
	payload := map[string]string{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.password(ts),
		"Timestamp":         ts,
		"CheckoutRequestID": checkoutRequestID,
	}
	var out struct {
		ResultCode string `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	if err := c.post(ctx, tok, "/mpesa/stkpushquery/v1/query", payload, &out); err != nil {
		return StatusResult{}, err
	}
	return StatusResult{
		Succeeded:  out.ResultCode == "0",
		ResultCode: out.ResultCode,
		ResultDesc: out.ResultDesc,
	}, nil
}

func (c *Client) post(ctx context.Context, token, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s status %d: %s", path, resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
