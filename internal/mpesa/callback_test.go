package mpesa

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successPayload = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "AccountReference": "MOV17259301001",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 200.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20191219102115},
          {"Name": "PhoneNumber", "Value": 254712345678}
        ]
      }
    }
  }
}`

const cancelledPayload = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user",
      "AccountReference": "SER17259301002"
    }
  }
}`

func TestParseCallbackSuccess(t *testing.T) {
	res, err := ParseCallback([]byte(successPayload))
	require.NoError(t, err)

	assert.Equal(t, "MOV17259301001", res.TransactionCode)
	assert.Equal(t, "ws_CO_191220191020363925", res.CheckoutRequestID)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "NLJ7RT61SV", res.Receipt)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "254712345678", res.Phone)
}

func TestParseCallbackCancelled(t *testing.T) {
	res, err := ParseCallback([]byte(cancelledPayload))
	require.NoError(t, err)

	assert.Equal(t, "SER17259301002", res.TransactionCode)
	assert.False(t, res.Succeeded)
	assert.Equal(t, "Request cancelled by user", res.ResultDesc)
	assert.Empty(t, res.Receipt)
}

func TestParseCallbackMalformedJSON(t *testing.T) {
	_, err := ParseCallback([]byte(`{"Body": `))
	assert.Error(t, err)
}

func TestParseCallbackMissingReference(t *testing.T) {
	_, err := ParseCallback([]byte(`{"Body":{"stkCallback":{"ResultCode":0,"ResultDesc":"ok"}}}`))
	assert.Error(t, err)
}
