// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentProcessedEvent is published after a gateway callback has been
// processed. It contains enough information for downstream consumers to
// log, reconcile, or trigger analytics without querying the primary
// database.
type PaymentProcessedEvent struct {
    TransactionCode string `json:"transaction_code"`
    Status          string `json:"status"`
    Amount          string `json:"amount"`
    Receipt         string `json:"receipt,omitempty"`
    Phone           string `json:"phone,omitempty"`
    ResultDesc      string `json:"result_desc,omitempty"`
    ProcessedAt     string `json:"processed_at"`
}
