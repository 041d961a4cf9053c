package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkamau/filamu/internal/fulfillment"
	"github.com/jkamau/filamu/internal/model"
	"github.com/jkamau/filamu/internal/repository"
)

type cbLedger struct {
	tx model.Transaction
}

func (l *cbLedger) GetByCode(_ context.Context, code string) (model.Transaction, error) {
	if l.tx.Code != code {
		return model.Transaction{}, repository.ErrTransactionNotFound
	}
	return l.tx, nil
}
func (l *cbLedger) MarkTerminal(_ context.Context, code, status string) (bool, error) {
	if l.tx.Code != code || l.tx.Status != model.StatusPending {
		return false, nil
	}
	l.tx.Status = status
	return true, nil
}

type cbMovies struct{ movie model.Movie }

func (m cbMovies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	if m.movie.ID != id {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return m.movie, nil
}

type cbSeries struct{}

func (cbSeries) EpisodesInRange(_ context.Context, _ uint64, _, _ int) ([]model.Episode, error) {
	return nil, nil
}
func (cbSeries) EpisodesBySeries(_ context.Context, _ uint64) ([]model.Episode, error) {
	return nil, nil
}

type cbUsers struct{}

func (cbUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	return model.User{ID: id, TelegramID: 5001}, nil
}

type cbDeliverer struct{ docs int }

func (d *cbDeliverer) SendText(int64, string) error             { return nil }
func (d *cbDeliverer) SendDocument(int64, string, string) error { d.docs++; return nil }

func postCallback(t *testing.T, h *CallbackHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/mpesa/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Receive(e.NewContext(req, rec)))
	return rec
}

func TestReceiveSuccessfulPayment(t *testing.T) {
	ledger := &cbLedger{tx: model.Transaction{
		ID: 1, UserID: 9, Code: "MOV17259301001", Amount: decimal.NewFromInt(200),
		Kind: model.KindMovie, ContentID: 7, Status: model.StatusPending,
	}}
	deliver := &cbDeliverer{}
	h := NewCallbackHandler(fulfillment.NewDispatcher(
		ledger,
		cbMovies{movie: model.Movie{ID: 7, Title: "The Matrix", FileID: "file-7"}},
		cbSeries{}, cbUsers{}, deliver,
	))

	body := `{"Body":{"stkCallback":{
      "CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok",
      "AccountReference":"MOV17259301001",
      "CallbackMetadata":{"Item":[
        {"Name":"Amount","Value":200},
        {"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},
        {"Name":"PhoneNumber","Value":254712345678}
      ]}}}}`

	rec := postCallback(t, h, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ResultCode":0`)
	assert.Equal(t, model.StatusCompleted, ledger.tx.Status)
	assert.Equal(t, 1, deliver.docs)
}

func TestReceiveMalformedPayload(t *testing.T) {
	ledger := &cbLedger{tx: model.Transaction{Code: "MOV1", Status: model.StatusPending}}
	h := NewCallbackHandler(fulfillment.NewDispatcher(ledger, cbMovies{}, cbSeries{}, cbUsers{}, &cbDeliverer{}))

	rec := postCallback(t, h, `{"Body":`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ResultCode":1`)
	// The ledger is never touched for payloads that fail to parse.
	assert.Equal(t, model.StatusPending, ledger.tx.Status)
}

func TestReceiveUnknownTransactionAcknowledged(t *testing.T) {
	h := NewCallbackHandler(fulfillment.NewDispatcher(&cbLedger{}, cbMovies{}, cbSeries{}, cbUsers{}, &cbDeliverer{}))

	body := `{"Body":{"stkCallback":{"ResultCode":0,"ResultDesc":"ok","AccountReference":"MOV404"}}}`
	rec := postCallback(t, h, body)

	// Unknown codes are ignored, not retried: the gateway gets a success ack.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ResultCode":0`)
}
