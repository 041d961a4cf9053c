package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkamau/filamu/internal/model"
	"github.com/jkamau/filamu/internal/mpesa"
	"github.com/jkamau/filamu/internal/repository"
	"github.com/jkamau/filamu/internal/session"
)

// ----- fakes -----

type sentMessage struct {
	kind    string // "text", "menu", "photo", "document"
	chatID  int64
	text    string
	fileID  string
	buttons []Button
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendText(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "text", chatID: chatID, text: text})
	return nil
}
func (f *fakeSender) SendMenu(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "menu", chatID: chatID, text: text})
	return nil
}
func (f *fakeSender) SendPhoto(chatID int64, fileID, caption string, buttons ...Button) error {
	f.sent = append(f.sent, sentMessage{kind: "photo", chatID: chatID, text: caption, fileID: fileID, buttons: buttons})
	return nil
}
func (f *fakeSender) SendDocument(chatID int64, fileID, caption string) error {
	f.sent = append(f.sent, sentMessage{kind: "document", chatID: chatID, text: caption, fileID: fileID})
	return nil
}

func (f *fakeSender) last() sentMessage {
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeMovies struct {
	movies []model.Movie
}

func (f *fakeMovies) SearchByTitle(_ context.Context, title string, limit int) ([]model.Movie, error) {
	var out []model.Movie
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(title)) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
func (f *fakeMovies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	for _, m := range f.movies {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Movie{}, repository.ErrMovieNotFound
}

type fakeSeries struct {
	series   []model.Series
	episodes []model.Episode
}

func (f *fakeSeries) FirstByTitle(_ context.Context, title string) (model.Series, error) {
	for _, s := range f.series {
		if strings.Contains(strings.ToLower(s.Title), strings.ToLower(title)) {
			return s, nil
		}
	}
	return model.Series{}, repository.ErrSeriesNotFound
}
func (f *fakeSeries) GetByID(_ context.Context, id uint64) (model.Series, error) {
	for _, s := range f.series {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Series{}, repository.ErrSeriesNotFound
}
func (f *fakeSeries) EpisodesInRange(_ context.Context, seriesID uint64, start, end int) ([]model.Episode, error) {
	var out []model.Episode
	for _, ep := range f.episodes {
		if ep.SeriesID == seriesID && ep.EpisodeNumber >= start && ep.EpisodeNumber <= end {
			out = append(out, ep)
		}
	}
	return out, nil
}

type fakeLedger struct {
	seq int
	txs map[string]model.Transaction
}

func newFakeLedger() *fakeLedger { return &fakeLedger{txs: map[string]model.Transaction{}} }

func (f *fakeLedger) CreatePending(_ context.Context, userID uint64, amount decimal.Decimal, kind string, contentID uint64, episodeRange string, startEp, endEp *int) (string, error) {
	f.seq++
	code := fmt.Sprintf("TST%08d", f.seq)
	f.txs[code] = model.Transaction{
		ID:           uint64(f.seq),
		UserID:       userID,
		Code:         code,
		Amount:       amount,
		Kind:         kind,
		ContentID:    contentID,
		EpisodeRange: episodeRange,
		StartEp:      startEp,
		EndEp:        endEp,
		Status:       model.StatusPending,
		CreatedAt:    time.Now(),
	}
	return code, nil
}
func (f *fakeLedger) GetByCode(_ context.Context, code string) (model.Transaction, error) {
	tx, ok := f.txs[code]
	if !ok {
		return model.Transaction{}, repository.ErrTransactionNotFound
	}
	return tx, nil
}
func (f *fakeLedger) ListByUser(_ context.Context, userID uint64, limit int) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID && len(out) < limit {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeUsers struct{}

func (fakeUsers) FindOrCreate(_ context.Context, telegramID int64, username, firstName, lastName string) (model.User, error) {
	return model.User{ID: 1, TelegramID: telegramID, Username: username, FirstName: firstName, LastName: lastName, IsActive: true}, nil
}

type fakeGateway struct {
	result mpesa.InitiateResult
	calls  []struct {
		phone  string
		amount decimal.Decimal
		code   string
	}
}

func (f *fakeGateway) Initiate(_ context.Context, phone string, amount decimal.Decimal, code string) mpesa.InitiateResult {
	f.calls = append(f.calls, struct {
		phone  string
		amount decimal.Decimal
		code   string
	}{phone, amount, code})
	return f.result
}

// ----- harness -----

type harness struct {
	engine   *Engine
	sender   *fakeSender
	ledger   *fakeLedger
	gateway  *fakeGateway
	sessions session.Store
}

func newHarness(movies *fakeMovies, series *fakeSeries) *harness {
	sender := &fakeSender{}
	ledger := newFakeLedger()
	gateway := &fakeGateway{result: mpesa.InitiateResult{Accepted: true, CheckoutRequestID: "ws_CO_1"}}
	sessions := session.NewMemoryStore(time.Hour)
	engine := NewEngine(sessions, movies, series, ledger, fakeUsers{}, gateway, sender, "")
	return &harness{engine: engine, sender: sender, ledger: ledger, gateway: gateway, sessions: sessions}
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	h.engine.Handle(context.Background(), Event{UserID: 42, ChatID: 42, FirstName: "Alice", Text: text})
}

func (h *harness) callback(t *testing.T, data string) {
	t.Helper()
	h.engine.Handle(context.Background(), Event{UserID: 42, ChatID: 42, FirstName: "Alice", Callback: data})
}

// ----- tests -----

func TestStartShowsMenuAndResetsSession(t *testing.T) {
	h := newHarness(&fakeMovies{}, &fakeSeries{})
	h.sessions.Set(42, session.Session{State: session.AwaitingPhone})

	h.text(t, "/start")

	last := h.sender.last()
	assert.Equal(t, "menu", last.kind)
	assert.Contains(t, last.text, "Welcome to the movie store!")
	assert.Contains(t, last.text, "Alice")
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)
}

func TestMoviePurchaseFlow(t *testing.T) {
	movies := &fakeMovies{movies: []model.Movie{
		{ID: 7, Title: "The Matrix", Thumbnail: "thumb-7", FileID: "file-7", Cost: decimal.NewFromInt(200)},
	}}
	h := newHarness(movies, &fakeSeries{})

	h.text(t, "🎬 Movies")
	assert.Equal(t, session.AwaitingMovieTitle, h.sessions.Get(42).State)

	h.text(t, "matrix")
	last := h.sender.last()
	require.Equal(t, "photo", last.kind)
	assert.Equal(t, "thumb-7", last.fileID)
	assert.Contains(t, last.text, "The Matrix")
	assert.Contains(t, last.text, "KES 200.00")
	require.Len(t, last.buttons, 1)
	assert.Equal(t, "purchase_movie_7", last.buttons[0].Data)
	// Search always returns to Idle so the next message is not swallowed.
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)

	h.callback(t, "purchase_movie_7")
	require.Len(t, h.ledger.txs, 1)
	sess := h.sessions.Get(42)
	assert.Equal(t, session.AwaitingPhone, sess.State)
	assert.Equal(t, model.KindMovie, sess.Kind)
	tx, err := h.ledger.GetByCode(context.Background(), sess.TransactionCode)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, tx.Status)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(200)))
	assert.Contains(t, h.sender.last().text, sess.TransactionCode)

	h.text(t, "254712345678")
	require.Len(t, h.gateway.calls, 1)
	assert.Equal(t, "254712345678", h.gateway.calls[0].phone)
	assert.Equal(t, tx.Code, h.gateway.calls[0].code)
	assert.Contains(t, h.sender.last().text, "Payment request sent")
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)
}

func TestInvalidPhoneRepromptsInPlace(t *testing.T) {
	movies := &fakeMovies{movies: []model.Movie{
		{ID: 1, Title: "Dune", FileID: "f", Cost: decimal.NewFromInt(150)},
	}}
	h := newHarness(movies, &fakeSeries{})

	h.callback(t, "purchase_movie_1")
	require.Equal(t, session.AwaitingPhone, h.sessions.Get(42).State)

	h.text(t, "071234567")
	assert.Contains(t, h.sender.last().text, "Invalid phone number format")
	assert.Empty(t, h.gateway.calls)
	// State is unchanged so the user can simply retype the number.
	assert.Equal(t, session.AwaitingPhone, h.sessions.Get(42).State)

	h.text(t, "254712345678")
	require.Len(t, h.gateway.calls, 1)
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)
}

func TestGatewayRejectionReportedToUser(t *testing.T) {
	movies := &fakeMovies{movies: []model.Movie{
		{ID: 1, Title: "Dune", FileID: "f", Cost: decimal.NewFromInt(150)},
	}}
	h := newHarness(movies, &fakeSeries{})
	h.gateway.result = mpesa.InitiateResult{Accepted: false, Error: "payment service is not configured"}

	h.callback(t, "purchase_movie_1")
	h.text(t, "254712345678")

	assert.Contains(t, h.sender.last().text, "Payment failed: payment service is not configured")
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)
}

func TestMovieSearchNoResults(t *testing.T) {
	h := newHarness(&fakeMovies{}, &fakeSeries{})

	h.text(t, "/movies")
	h.text(t, "unknown title")

	assert.Contains(t, h.sender.last().text, "no movies found")
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)
}

func TestSeriesPartialAvailability(t *testing.T) {
	series := &fakeSeries{
		series: []model.Series{{ID: 3, Title: "Dark", Thumbnail: "thumb-3"}},
		episodes: []model.Episode{
			{ID: 1, SeriesID: 3, EpisodeNumber: 1, FileID: "e1", Cost: decimal.NewFromInt(50)},
			{ID: 2, SeriesID: 3, EpisodeNumber: 2, FileID: "e2", Cost: decimal.NewFromInt(50)},
			{ID: 4, SeriesID: 3, EpisodeNumber: 4, FileID: "e4", Cost: decimal.NewFromInt(70)},
		},
	}
	h := newHarness(&fakeMovies{}, series)

	h.text(t, "📺 Series")
	h.text(t, "dark")
	require.Equal(t, session.AwaitingEpisodeRange, h.sessions.Get(42).State)
	assert.Equal(t, uint64(3), h.sessions.Get(42).SeriesID)

	h.text(t, "1-5")
	last := h.sender.last()
	require.Equal(t, "photo", last.kind)
	assert.Contains(t, last.text, "Episodes not available: 3, 5")
	assert.Contains(t, last.text, "(3 available)")
	assert.Contains(t, last.text, "KES 170.00")
	require.Len(t, last.buttons, 1)
	assert.Equal(t, "purchase_series_3_1-5", last.buttons[0].Data)

	// The quote is recorded as a pending transaction.
	require.Len(t, h.ledger.txs, 1)

	h.callback(t, "purchase_series_3_1-5")
	require.Len(t, h.ledger.txs, 2)
	sess := h.sessions.Get(42)
	assert.Equal(t, session.AwaitingPhone, sess.State)
	tx, err := h.ledger.GetByCode(context.Background(), sess.TransactionCode)
	require.NoError(t, err)
	assert.Equal(t, model.KindSeries, tx.Kind)
	assert.Equal(t, "1-5", tx.EpisodeRange)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(170)))
	require.NotNil(t, tx.StartEp)
	require.NotNil(t, tx.EndEp)
	assert.Equal(t, 1, *tx.StartEp)
	assert.Equal(t, 5, *tx.EndEp)
}

func TestDescendingRangeCreatesNoTransaction(t *testing.T) {
	series := &fakeSeries{
		series:   []model.Series{{ID: 3, Title: "Dark"}},
		episodes: []model.Episode{{ID: 1, SeriesID: 3, EpisodeNumber: 1, FileID: "e1", Cost: decimal.NewFromInt(50)}},
	}
	h := newHarness(&fakeMovies{}, series)

	h.text(t, "/series")
	h.text(t, "dark")
	h.text(t, "5-1")

	assert.Contains(t, h.sender.last().text, "Invalid episode range")
	assert.Empty(t, h.ledger.txs)
	// Malformed input re-prompts without leaving the state.
	assert.Equal(t, session.AwaitingEpisodeRange, h.sessions.Get(42).State)
}

func TestEmptyRangeCreatesNoTransaction(t *testing.T) {
	series := &fakeSeries{
		series:   []model.Series{{ID: 3, Title: "Dark"}},
		episodes: []model.Episode{{ID: 1, SeriesID: 3, EpisodeNumber: 1, FileID: "e1", Cost: decimal.NewFromInt(50)}},
	}
	h := newHarness(&fakeMovies{}, series)

	h.text(t, "/series")
	h.text(t, "dark")
	h.text(t, "7-9")

	assert.Contains(t, h.sender.last().text, "No episodes found in the specified range")
	assert.Empty(t, h.ledger.txs)
	assert.Equal(t, session.Idle, h.sessions.Get(42).State)
}

func TestUnknownTextInIdleState(t *testing.T) {
	h := newHarness(&fakeMovies{}, &fakeSeries{})

	h.text(t, "hello there")

	assert.Contains(t, h.sender.last().text, "I didn't understand that")
}

func TestParseEpisodeRange(t *testing.T) {
	cases := []struct {
		in         string
		start, end int
		ok         bool
	}{
		{"1", 1, 1, true},
		{"7", 7, 7, true},
		{"1-5", 1, 5, true},
		{"3-3", 3, 3, true},
		{"5-1", 0, 0, false},
		{"", 0, 0, false},
		{"abc", 0, 0, false},
		{"1-2-3", 0, 0, false},
		{"-5", 0, 0, false},
		{"1 - 5", 0, 0, false},
	}
	for _, tc := range cases {
		start, end, ok := ParseEpisodeRange(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.start, start, "input %q", tc.in)
			assert.Equal(t, tc.end, end, "input %q", tc.in)
		}
	}
}
