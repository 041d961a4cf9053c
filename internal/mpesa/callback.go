package mpesa

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CallbackResult is the normalized outcome of a gateway callback.  All
// downstream processing (ledger transition, fulfillment) depends only on
// this type, never on the raw Daraja payload shape.
type CallbackResult struct {
	TransactionCode   string
	CheckoutRequestID string
	Succeeded         bool
	ResultDesc        string
	Receipt           string          // MpesaReceiptNumber, set on success
	Amount            decimal.Decimal // settled amount, set on success
	Phone             string          // paying MSISDN, set on success
}

// stkCallbackEnvelope mirrors the Daraja STK result payload.  The metadata
// items arrive as a name/value list with mixed value types.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			AccountReference  string `json:"AccountReference"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string          `json:"Name"`
					Value json.RawMessage `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback decodes a raw callback body into a CallbackResult.  It is
// the single parsing boundary for the gateway's JSON: malformed payloads
// and payloads without a transaction reference return an error, which the
// HTTP handler acknowledges to the gateway as failed without touching the
// ledger.
func ParseCallback(body []byte) (CallbackResult, error) {
	var env stkCallbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return CallbackResult{}, fmt.Errorf("decode stk callback: %w", err)
	}
	cb := env.Body.StkCallback
	if cb.AccountReference == "" {
		return CallbackResult{}, fmt.Errorf("stk callback missing account reference")
	}

	res := CallbackResult{
		TransactionCode:   cb.AccountReference,
		CheckoutRequestID: cb.CheckoutRequestID,
		Succeeded:         cb.ResultCode == 0,
		ResultDesc:        cb.ResultDesc,
	}
	if !res.Succeeded {
		return res, nil
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			var s string
			if err := json.Unmarshal(item.Value, &s); err == nil {
				res.Receipt = s
			}
		case "Amount":
			var f float64
			if err := json.Unmarshal(item.Value, &f); err == nil {
				res.Amount = decimal.NewFromFloat(f)
			}
		case "PhoneNumber":
			// Daraja sends the MSISDN as a JSON number.
			var n json.Number
			if err := json.Unmarshal(item.Value, &n); err == nil {
				res.Phone = n.String()
			}
		}
	}
	return res, nil
}
