package fulfillment

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkamau/filamu/internal/model"
	"github.com/jkamau/filamu/internal/mpesa"
	"github.com/jkamau/filamu/internal/repository"
)

// memLedger reproduces the repository's guarded transition: only a pending
// row may move to a terminal status, and only once.
type memLedger struct {
	mu  sync.Mutex
	txs map[string]model.Transaction
}

func newMemLedger(txs ...model.Transaction) *memLedger {
	m := &memLedger{txs: map[string]model.Transaction{}}
	for _, tx := range txs {
		m.txs[tx.Code] = tx
	}
	return m
}

func (m *memLedger) GetByCode(_ context.Context, code string) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[code]
	if !ok {
		return model.Transaction{}, repository.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *memLedger) MarkTerminal(_ context.Context, code, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[code]
	if !ok || tx.Status != model.StatusPending {
		return false, nil
	}
	tx.Status = status
	m.txs[code] = tx
	return true, nil
}

type memMovies struct{ movies map[uint64]model.Movie }

func (m memMovies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	mv, ok := m.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return mv, nil
}

type memSeries struct{ episodes []model.Episode }

func (m memSeries) EpisodesInRange(_ context.Context, seriesID uint64, start, end int) ([]model.Episode, error) {
	var out []model.Episode
	for _, ep := range m.episodes {
		if ep.SeriesID == seriesID && ep.EpisodeNumber >= start && ep.EpisodeNumber <= end {
			out = append(out, ep)
		}
	}
	return out, nil
}
func (m memSeries) EpisodesBySeries(_ context.Context, seriesID uint64) ([]model.Episode, error) {
	var out []model.Episode
	for _, ep := range m.episodes {
		if ep.SeriesID == seriesID {
			out = append(out, ep)
		}
	}
	return out, nil
}

type memUsers struct{}

func (memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	return model.User{ID: id, TelegramID: int64(1000 + id)}, nil
}

type recordedSend struct {
	chatID  int64
	fileID  string
	caption string
}

type memDeliverer struct {
	texts []string
	docs  []recordedSend
}

func (d *memDeliverer) SendText(chatID int64, text string) error {
	d.texts = append(d.texts, text)
	return nil
}
func (d *memDeliverer) SendDocument(chatID int64, fileID, caption string) error {
	d.docs = append(d.docs, recordedSend{chatID: chatID, fileID: fileID, caption: caption})
	return nil
}

func intPtr(n int) *int { return &n }

func pendingMovieTx(code string) model.Transaction {
	return model.Transaction{
		ID: 1, UserID: 5, Code: code, Amount: decimal.NewFromInt(200),
		Kind: model.KindMovie, ContentID: 7, Status: model.StatusPending,
	}
}

func successCallback(code string) mpesa.CallbackResult {
	return mpesa.CallbackResult{
		TransactionCode: code,
		Succeeded:       true,
		Receipt:         "QCX12345",
		Amount:          decimal.NewFromInt(200),
		Phone:           "254712345678",
	}
}

func TestProcessCompletesAndDeliversMovie(t *testing.T) {
	ledger := newMemLedger(pendingMovieTx("MOV00000001001"))
	movies := memMovies{movies: map[uint64]model.Movie{7: {ID: 7, Title: "The Matrix", FileID: "file-7"}}}
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, movies, memSeries{}, memUsers{}, deliver)

	err := d.Process(context.Background(), successCallback("MOV00000001001"))
	require.NoError(t, err)

	tx, _ := ledger.GetByCode(context.Background(), "MOV00000001001")
	assert.Equal(t, model.StatusCompleted, tx.Status)
	require.Len(t, deliver.docs, 1)
	assert.Equal(t, int64(1005), deliver.docs[0].chatID)
	assert.Equal(t, "file-7", deliver.docs[0].fileID)
	assert.Contains(t, deliver.docs[0].caption, "The Matrix")
}

func TestProcessDuplicateCallbackDeliversOnce(t *testing.T) {
	ledger := newMemLedger(pendingMovieTx("MOV00000001001"))
	movies := memMovies{movies: map[uint64]model.Movie{7: {ID: 7, Title: "The Matrix", FileID: "file-7"}}}
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, movies, memSeries{}, memUsers{}, deliver)

	require.NoError(t, d.Process(context.Background(), successCallback("MOV00000001001")))
	require.NoError(t, d.Process(context.Background(), successCallback("MOV00000001001")))

	assert.Len(t, deliver.docs, 1)
	tx, _ := ledger.GetByCode(context.Background(), "MOV00000001001")
	assert.Equal(t, model.StatusCompleted, tx.Status)
}

func TestProcessUnknownCodeIsIgnored(t *testing.T) {
	ledger := newMemLedger()
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, memMovies{}, memSeries{}, memUsers{}, deliver)

	err := d.Process(context.Background(), successCallback("MOV99999999999"))
	require.NoError(t, err)
	assert.Empty(t, deliver.docs)
}

func TestProcessFailedPaymentDeliversNothing(t *testing.T) {
	ledger := newMemLedger(pendingMovieTx("MOV00000001001"))
	movies := memMovies{movies: map[uint64]model.Movie{7: {ID: 7, Title: "The Matrix", FileID: "file-7"}}}
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, movies, memSeries{}, memUsers{}, deliver)

	err := d.Process(context.Background(), mpesa.CallbackResult{
		TransactionCode: "MOV00000001001",
		Succeeded:       false,
		ResultDesc:      "Request cancelled by user",
	})
	require.NoError(t, err)

	tx, _ := ledger.GetByCode(context.Background(), "MOV00000001001")
	assert.Equal(t, model.StatusFailed, tx.Status)
	assert.Empty(t, deliver.docs)
}

func TestProcessFailedThenSuccessStaysFailed(t *testing.T) {
	// Once the row is terminal a later contradictory callback cannot flip it.
	ledger := newMemLedger(pendingMovieTx("MOV00000001001"))
	movies := memMovies{movies: map[uint64]model.Movie{7: {ID: 7, Title: "The Matrix", FileID: "file-7"}}}
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, movies, memSeries{}, memUsers{}, deliver)

	require.NoError(t, d.Process(context.Background(), mpesa.CallbackResult{
		TransactionCode: "MOV00000001001", Succeeded: false, ResultDesc: "timeout",
	}))
	require.NoError(t, d.Process(context.Background(), successCallback("MOV00000001001")))

	tx, _ := ledger.GetByCode(context.Background(), "MOV00000001001")
	assert.Equal(t, model.StatusFailed, tx.Status)
	assert.Empty(t, deliver.docs)
}

func TestProcessDeliversSeriesRangeInOrder(t *testing.T) {
	ledger := newMemLedger(model.Transaction{
		ID: 2, UserID: 5, Code: "SER00000001001", Amount: decimal.NewFromInt(170),
		Kind: model.KindSeries, ContentID: 3, EpisodeRange: "1-5",
		StartEp: intPtr(1), EndEp: intPtr(5), Status: model.StatusPending,
	})
	series := memSeries{episodes: []model.Episode{
		{ID: 1, SeriesID: 3, EpisodeNumber: 1, FileID: "e1"},
		{ID: 2, SeriesID: 3, EpisodeNumber: 2, FileID: "e2"},
		{ID: 4, SeriesID: 3, EpisodeNumber: 4, FileID: "e4"},
		{ID: 9, SeriesID: 8, EpisodeNumber: 1, FileID: "other"},
	}}
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, memMovies{}, series, memUsers{}, deliver)

	err := d.Process(context.Background(), successCallback("SER00000001001"))
	require.NoError(t, err)

	require.Len(t, deliver.docs, 3)
	assert.Equal(t, "e1", deliver.docs[0].fileID)
	assert.Equal(t, "e2", deliver.docs[1].fileID)
	assert.Equal(t, "e4", deliver.docs[2].fileID)
	assert.Contains(t, deliver.docs[2].caption, "Episode 4")
}

func TestProcessLegacyTransactionDeliversWholeSeries(t *testing.T) {
	// Rows created before range bounds were stored have nil StartEp/EndEp.
	ledger := newMemLedger(model.Transaction{
		ID: 3, UserID: 5, Code: "SER00000001002", Amount: decimal.NewFromInt(100),
		Kind: model.KindSeries, ContentID: 3, Status: model.StatusPending,
	})
	series := memSeries{episodes: []model.Episode{
		{ID: 1, SeriesID: 3, EpisodeNumber: 1, FileID: "e1"},
		{ID: 2, SeriesID: 3, EpisodeNumber: 2, FileID: "e2"},
	}}
	deliver := &memDeliverer{}
	d := NewDispatcher(ledger, memMovies{}, series, memUsers{}, deliver)

	err := d.Process(context.Background(), successCallback("SER00000001002"))
	require.NoError(t, err)
	assert.Len(t, deliver.docs, 2)
}
