package handler

import (
    "io"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"

    "github.com/jkamau/filamu/internal/fulfillment"
    "github.com/jkamau/filamu/internal/mpesa"
    "github.com/jkamau/filamu/internal/queue"
    queue_publisher "github.com/jkamau/filamu/internal/service"
)

// CallbackHandler receives asynchronous payment results from the M-Pesa
// gateway and hands them to the fulfillment dispatcher.
type CallbackHandler struct {
    Dispatcher *fulfillment.Dispatcher
}

func NewCallbackHandler(d *fulfillment.Dispatcher) *CallbackHandler {
    return &CallbackHandler{Dispatcher: d}
}

// Receive handles POST /api/mpesa/callback.  The gateway retries the
// callback on non-success responses, so a transient processing failure is
// reported back as ResultCode 1 to trigger a retry; the dispatcher is
// idempotent so a repeated delivery can never fulfill twice.
func (h *CallbackHandler) Receive(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"ResultCode": 1, "ResultDesc": "unreadable body"})
    }

    res, err := mpesa.ParseCallback(body)
    if err != nil {
        log.Warnf("callback: rejected payload: %v", err)
        return c.JSON(http.StatusOK, echo.Map{"ResultCode": 1, "ResultDesc": "invalid callback payload"})
    }

    if err := h.Dispatcher.Process(c.Request().Context(), res); err != nil {
        log.Errorf("callback: processing %s failed: %v", res.TransactionCode, err)
        return c.JSON(http.StatusOK, echo.Map{"ResultCode": 1, "ResultDesc": "processing failed"})
    }

    // Audit trail.  A broker outage must not fail the callback, so the
    // publish error is logged inside the publisher and ignored here.
    status := "failed"
    if res.Succeeded {
        status = "completed"
    }
    _ = queue_publisher.PublishPaymentProcessed(c.Request().Context(), queue.PaymentProcessedEvent{
        TransactionCode: res.TransactionCode,
        Status:          status,
        Amount:          res.Amount.String(),
        Receipt:         res.Receipt,
        Phone:           res.Phone,
        ResultDesc:      res.ResultDesc,
        ProcessedAt:     time.Now().UTC().Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, echo.Map{"ResultCode": 0, "ResultDesc": "Success"})
}
