// Package fulfillment turns a confirmed payment into delivered content.
// The dispatcher is the rendezvous point between the asynchronous gateway
// callback and the ledger row created when the user confirmed the purchase
// in chat; its guarded status transition is what makes delivery happen at
// most once no matter how many times the gateway retries the callback.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jkamau/filamu/internal/model"
	"github.com/jkamau/filamu/internal/mpesa"
	"github.com/jkamau/filamu/internal/repository"
)

// Ledger is the slice of the transaction repository the dispatcher needs.
type Ledger interface {
	GetByCode(ctx context.Context, code string) (model.Transaction, error)
	MarkTerminal(ctx context.Context, code, status string) (bool, error)
}

// MovieCatalog resolves movie deliverables.
type MovieCatalog interface {
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
}

// SeriesCatalog resolves episode deliverables.
type SeriesCatalog interface {
	EpisodesInRange(ctx context.Context, seriesID uint64, start, end int) ([]model.Episode, error)
	EpisodesBySeries(ctx context.Context, seriesID uint64) ([]model.Episode, error)
}

// UserDirectory maps the ledger's user id back to a Telegram chat.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Deliverer sends content to the chat.  *bot.Telegram satisfies it.
type Deliverer interface {
	SendText(chatID int64, text string) error
	SendDocument(chatID int64, fileID, caption string) error
}

// Dispatcher processes normalized payment callbacks.
type Dispatcher struct {
	ledger  Ledger
	movies  MovieCatalog
	series  SeriesCatalog
	users   UserDirectory
	deliver Deliverer
}

// NewDispatcher wires the dispatcher's collaborators.
func NewDispatcher(ledger Ledger, movies MovieCatalog, series SeriesCatalog, users UserDirectory, deliver Deliverer) *Dispatcher {
	return &Dispatcher{ledger: ledger, movies: movies, series: series, users: users, deliver: deliver}
}

// Process transitions the named transaction to its terminal status and, on
// success, delivers the purchased content.  Unknown codes, duplicate
// callbacks and lost races are all ignored after a log line; only ledger
// and lookup failures surface as errors so the HTTP handler can answer the
// gateway with a failure code.  Per-item delivery failures never do: the
// completed status stands and redelivery is an administrative action.
func (d *Dispatcher) Process(ctx context.Context, res mpesa.CallbackResult) error {
	tx, err := d.ledger.GetByCode(ctx, res.TransactionCode)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			log.Warnf("fulfillment: callback for unknown transaction %s ignored", res.TransactionCode)
			return nil
		}
		return fmt.Errorf("fulfillment: load %s: %w", res.TransactionCode, err)
	}
	if tx.Terminal() {
		log.Infof("fulfillment: duplicate callback for %s (already %s) ignored", tx.Code, tx.Status)
		return nil
	}

	status := model.StatusCompleted
	if !res.Succeeded {
		status = model.StatusFailed
	}
	took, err := d.ledger.MarkTerminal(ctx, tx.Code, status)
	if err != nil {
		return fmt.Errorf("fulfillment: mark %s %s: %w", tx.Code, status, err)
	}
	if !took {
		// A concurrent callback won the compare-and-swap.
		log.Infof("fulfillment: lost terminal race for %s, ignoring", tx.Code)
		return nil
	}

	if status == model.StatusFailed {
		log.WithFields(log.Fields{"code": tx.Code, "desc": res.ResultDesc}).Info("fulfillment: payment failed")
		return nil
	}

	log.WithFields(log.Fields{"code": tx.Code, "receipt": res.Receipt}).Info("fulfillment: payment completed, delivering")

	user, err := d.users.GetByID(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("fulfillment: resolve user %d for %s: %w", tx.UserID, tx.Code, err)
	}

	switch tx.Kind {
	case model.KindMovie:
		d.deliverMovie(ctx, tx, user)
	case model.KindSeries:
		d.deliverSeries(ctx, tx, user)
	default:
		log.Errorf("fulfillment: transaction %s has unknown kind %q", tx.Code, tx.Kind)
	}
	return nil
}

func (d *Dispatcher) deliverMovie(ctx context.Context, tx model.Transaction, user model.User) {
	m, err := d.movies.GetByID(ctx, tx.ContentID)
	if err != nil {
		log.Errorf("fulfillment: movie %d for %s unavailable: %v", tx.ContentID, tx.Code, err)
		return
	}
	caption := fmt.Sprintf("🎬 %s\n\nEnjoy your movie!", m.Title)
	if err := d.deliver.SendDocument(user.TelegramID, m.FileID, caption); err != nil {
		log.Errorf("fulfillment: deliver movie %d for %s: %v", m.ID, tx.Code, err)
	}
}

// deliverSeries sends the episodes covered by the transaction in ascending
// episode order, one by one.  Transactions created before ranges were
// stored fall back to the whole series; new transactions always carry both
// bounds.
func (d *Dispatcher) deliverSeries(ctx context.Context, tx model.Transaction, user model.User) {
	var (
		episodes []model.Episode
		err      error
	)
	if tx.StartEp != nil && tx.EndEp != nil {
		episodes, err = d.series.EpisodesInRange(ctx, tx.ContentID, *tx.StartEp, *tx.EndEp)
	} else {
		episodes, err = d.series.EpisodesBySeries(ctx, tx.ContentID)
	}
	if err != nil {
		log.Errorf("fulfillment: episodes for %s: %v", tx.Code, err)
		return
	}
	if len(episodes) == 0 {
		log.Warnf("fulfillment: no episodes to deliver for %s", tx.Code)
		return
	}
	for _, ep := range episodes {
		caption := fmt.Sprintf("📺 Episode %d", ep.EpisodeNumber)
		if err := d.deliver.SendDocument(user.TelegramID, ep.FileID, caption); err != nil {
			// Keep going; one failed send must not hold the rest hostage.
			log.Errorf("fulfillment: deliver episode %d for %s: %v", ep.EpisodeNumber, tx.Code, err)
		}
	}
}
