// Package bot implements the conversation engine: a per-user state machine
// that walks Telegram users through catalog search, episode range selection
// and payment initiation.  The engine is transport-independent; telegram.go
// adapts Bot API updates into Events and sends replies through the Sender
// interface, which keeps every transition unit-testable without a network.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jkamau/filamu/internal/model"
	"github.com/jkamau/filamu/internal/mpesa"
	"github.com/jkamau/filamu/internal/session"
)

// Event is one inbound user interaction.  Exactly one of Text or Callback
// is set: Text for typed messages and menu buttons, Callback for inline
// button presses.
type Event struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
	Text      string
	Callback  string
}

// Button is an inline action attached to an outbound message.
type Button struct {
	Label string
	Data  string
}

// Sender delivers outbound messages.  Implementations must be safe for use
// from multiple goroutines: the engine runs on the update loop while the
// fulfillment dispatcher sends from HTTP handler goroutines.
type Sender interface {
	SendText(chatID int64, text string) error
	SendMenu(chatID int64, text string) error
	SendPhoto(chatID int64, fileID, caption string, buttons ...Button) error
	SendDocument(chatID int64, fileID, caption string) error
}

// MovieCatalog is the slice of the movie repository the engine reads.
type MovieCatalog interface {
	SearchByTitle(ctx context.Context, title string, limit int) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
}

// SeriesCatalog is the slice of the series repository the engine reads.
type SeriesCatalog interface {
	FirstByTitle(ctx context.Context, title string) (model.Series, error)
	GetByID(ctx context.Context, id uint64) (model.Series, error)
	EpisodesInRange(ctx context.Context, seriesID uint64, start, end int) ([]model.Episode, error)
}

// Ledger is the transaction store contract the engine writes purchase
// intents to.
type Ledger interface {
	CreatePending(ctx context.Context, userID uint64, amount decimal.Decimal, kind string, contentID uint64, episodeRange string, startEp, endEp *int) (string, error)
	GetByCode(ctx context.Context, code string) (model.Transaction, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Transaction, error)
}

// UserDirectory registers and resolves Telegram users.
type UserDirectory interface {
	FindOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (model.User, error)
}

// Gateway initiates push payments.
type Gateway interface {
	Initiate(ctx context.Context, phone string, amount decimal.Decimal, code string) mpesa.InitiateResult
}

// searchLimit caps how many catalog matches one title search presents.
const searchLimit = 5

// rangeRe accepts "7" or "1-10"; purchase callbacks always carry the
// two-sided form.
var rangeRe = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// Engine drives the conversation state machine.
type Engine struct {
	sessions session.Store
	movies   MovieCatalog
	series   SeriesCatalog
	ledger   Ledger
	users    UserDirectory
	gateway  Gateway
	sender   Sender
	welcome  string
}

// NewEngine wires the engine's collaborators.  welcome may be empty, in
// which case a default greeting is used.
func NewEngine(sessions session.Store, movies MovieCatalog, series SeriesCatalog, ledger Ledger, users UserDirectory, gateway Gateway, sender Sender, welcome string) *Engine {
	if welcome == "" {
		welcome = "Welcome to the movie store!"
	}
	return &Engine{
		sessions: sessions,
		movies:   movies,
		series:   series,
		ledger:   ledger,
		users:    users,
		gateway:  gateway,
		sender:   sender,
		welcome:  welcome,
	}
}

// Handle processes one inbound event to completion: it registers the user,
// consults the session, performs the transition and sends the replies.
// Events for one user must be handled in arrival order; the Telegram update
// loop guarantees that by processing updates sequentially.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	// Register on first contact so purchases always find a user row.
	user, err := e.users.FindOrCreate(ctx, ev.UserID, ev.Username, ev.FirstName, ev.LastName)
	if err != nil {
		log.Errorf("bot: register user %d: %v", ev.UserID, err)
		e.say(ev.ChatID, "Sorry, something went wrong. Please try again later.")
		return
	}

	if ev.Callback != "" {
		e.handleCallback(ctx, ev, user)
		return
	}

	switch {
	case ev.Text == "/start":
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		greeting := fmt.Sprintf("%s\n\nHi %s! Use the buttons below to browse content, or ❓ Help to learn how it works.", e.welcome, ev.FirstName)
		if err := e.sender.SendMenu(ev.ChatID, greeting); err != nil {
			log.Errorf("bot: send menu to %d: %v", ev.ChatID, err)
		}
	case ev.Text == "/movies" || ev.Text == "🎬 Movies" || ev.Text == "Movies":
		e.startMovieFlow(ev)
	case ev.Text == "/series" || ev.Text == "📺 Series" || ev.Text == "Series":
		e.startSeriesFlow(ev)
	case ev.Text == "/transactions" || ev.Text == "💳 My Transactions" || ev.Text == "My Transactions":
		e.showTransactions(ctx, ev, user)
	case ev.Text == "/help" || ev.Text == "❓ Help" || ev.Text == "Help":
		e.say(ev.ChatID, helpText)
	default:
		e.handleStateful(ctx, ev, user)
	}
}

// handleStateful routes free text according to the user's session state.
func (e *Engine) handleStateful(ctx context.Context, ev Event, user model.User) {
	sess := e.sessions.Get(ev.UserID)
	switch sess.State {
	case session.AwaitingMovieTitle:
		e.searchMovies(ctx, ev)
	case session.AwaitingSeriesTitle:
		e.searchSeries(ctx, ev)
	case session.AwaitingEpisodeRange:
		e.selectEpisodeRange(ctx, ev, user, sess)
	case session.AwaitingPhone:
		e.capturePhone(ctx, ev, sess)
	default:
		e.say(ev.ChatID, "I didn't understand that. Use the menu buttons or /help.")
	}
}

func (e *Engine) startMovieFlow(ev Event) {
	e.sessions.Set(ev.UserID, session.Session{State: session.AwaitingMovieTitle})
	e.say(ev.ChatID, "Please enter the title of the movie you are looking for:")
}

func (e *Engine) startSeriesFlow(ev Event) {
	e.sessions.Set(ev.UserID, session.Session{State: session.AwaitingSeriesTitle})
	e.say(ev.ChatID, "Please enter the title of the series you are looking for:")
}

// searchMovies presents up to searchLimit matches, each with a purchase
// button bound to the movie id.  The flow returns to Idle regardless of the
// result; a fruitless search should not swallow the user's next message.
func (e *Engine) searchMovies(ctx context.Context, ev Event) {
	e.sessions.Set(ev.UserID, session.Session{State: session.Idle})

	movies, err := e.movies.SearchByTitle(ctx, strings.TrimSpace(ev.Text), searchLimit)
	if err != nil {
		log.Errorf("bot: movie search %q: %v", ev.Text, err)
		e.say(ev.ChatID, "Sorry, an error occurred while searching for movies. Please try again later.")
		return
	}
	if len(movies) == 0 {
		e.say(ev.ChatID, "Sorry, no movies found with that title. Please try again with a different title.")
		return
	}
	for _, m := range movies {
		caption := fmt.Sprintf("🎬 %s\n\n💰 Price: KES %s", m.Title, m.Cost.StringFixed(2))
		btn := Button{Label: "💳 Purchase", Data: fmt.Sprintf("purchase_movie_%d", m.ID)}
		if err := e.sender.SendPhoto(ev.ChatID, m.Thumbnail, caption, btn); err != nil {
			log.Errorf("bot: present movie %d: %v", m.ID, err)
		}
	}
}

// searchSeries resolves the first matching series and asks for an episode
// range.  Unlike movie search this transitions forward, carrying the series
// id in the session.
func (e *Engine) searchSeries(ctx context.Context, ev Event) {
	s, err := e.series.FirstByTitle(ctx, strings.TrimSpace(ev.Text))
	if err != nil {
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		if isNotFound(err) {
			e.say(ev.ChatID, "Sorry, no series found with that title. Please try again with a different title.")
			return
		}
		log.Errorf("bot: series search %q: %v", ev.Text, err)
		e.say(ev.ChatID, "Sorry, an error occurred while searching for series. Please try again later.")
		return
	}
	caption := fmt.Sprintf("📺 %s\n\nPlease send the episode range you want to purchase (e.g. 1-3):", s.Title)
	if err := e.sender.SendPhoto(ev.ChatID, s.Thumbnail, caption); err != nil {
		log.Errorf("bot: present series %d: %v", s.ID, err)
	}
	e.sessions.Set(ev.UserID, session.Session{State: session.AwaitingEpisodeRange, SeriesID: s.ID})
}

// selectEpisodeRange validates the typed range, reports availability and
// price, records a pending transaction and offers the purchase button.
// Malformed input re-prompts without leaving the state so the user can
// simply type the range again.
func (e *Engine) selectEpisodeRange(ctx context.Context, ev Event, user model.User, sess session.Session) {
	start, end, ok := ParseEpisodeRange(strings.TrimSpace(ev.Text))
	if !ok {
		e.say(ev.ChatID, `Invalid episode range. Please use a format like "1-5" or just "1".`)
		return
	}

	s, err := e.series.GetByID(ctx, sess.SeriesID)
	if err != nil {
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		if isNotFound(err) {
			e.say(ev.ChatID, "Sorry, this series is no longer available.")
			return
		}
		log.Errorf("bot: load series %d: %v", sess.SeriesID, err)
		e.say(ev.ChatID, "Sorry, an error occurred. Please try again later.")
		return
	}

	episodes, err := e.series.EpisodesInRange(ctx, s.ID, start, end)
	if err != nil {
		log.Errorf("bot: episodes %d [%d-%d]: %v", s.ID, start, end, err)
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		e.say(ev.ChatID, "Sorry, an error occurred. Please try again later.")
		return
	}
	e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
	if len(episodes) == 0 {
		e.say(ev.ChatID, "No episodes found in the specified range. Please try a different range.")
		return
	}

	total, missing := rangeSummary(episodes, start, end)

	// Record the quoted price as a pending intent.  Clicking the purchase
	// button creates the transaction that actually gets paid; this row
	// keeps the quote auditable if the user walks away.
	rangeText := formatRange(start, end)
	if _, err := e.ledger.CreatePending(ctx, user.ID, total, model.KindSeries, s.ID, rangeText, &start, &end); err != nil {
		log.Errorf("bot: quote transaction for series %d: %v", s.ID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📺 %s\n\n", s.Title)
	if len(missing) > 0 {
		fmt.Fprintf(&b, "⚠️ Episodes not available: %s\n\n", joinInts(missing))
	}
	fmt.Fprintf(&b, "🔢 Episodes: %s (%d available)\n💰 Total Price: KES %s", rangeText, len(episodes), total.StringFixed(2))

	btn := Button{Label: "💳 Purchase Available Episodes", Data: fmt.Sprintf("purchase_series_%d_%d-%d", s.ID, start, end)}
	if err := e.sender.SendPhoto(ev.ChatID, s.Thumbnail, b.String(), btn); err != nil {
		log.Errorf("bot: present range for series %d: %v", s.ID, err)
	}
}

// handleCallback reacts to inline purchase buttons.  Button data survives
// in old chat messages indefinitely, so both handlers re-verify that the
// content still exists.
func (e *Engine) handleCallback(ctx context.Context, ev Event, user model.User) {
	switch {
	case strings.HasPrefix(ev.Callback, "purchase_movie_"):
		idText := strings.TrimPrefix(ev.Callback, "purchase_movie_")
		id, err := strconv.ParseUint(idText, 10, 64)
		if err != nil {
			log.Warnf("bot: bad movie callback %q from %d", ev.Callback, ev.UserID)
			return
		}
		e.purchaseMovie(ctx, ev, user, id)
	case strings.HasPrefix(ev.Callback, "purchase_series_"):
		rest := strings.TrimPrefix(ev.Callback, "purchase_series_")
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) != 2 {
			log.Warnf("bot: bad series callback %q from %d", ev.Callback, ev.UserID)
			return
		}
		id, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			log.Warnf("bot: bad series callback %q from %d", ev.Callback, ev.UserID)
			return
		}
		e.purchaseSeries(ctx, ev, user, id, parts[1])
	default:
		log.Warnf("bot: unknown callback %q from %d", ev.Callback, ev.UserID)
	}
}

// purchaseMovie creates the pending transaction for a single movie and
// moves the session to phone capture.
func (e *Engine) purchaseMovie(ctx context.Context, ev Event, user model.User, movieID uint64) {
	m, err := e.movies.GetByID(ctx, movieID)
	if err != nil {
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		if isNotFound(err) {
			e.say(ev.ChatID, "Sorry, this movie is no longer available.")
			return
		}
		log.Errorf("bot: load movie %d: %v", movieID, err)
		e.say(ev.ChatID, "Sorry, an error occurred during the purchase process. Please try again later.")
		return
	}

	code, err := e.ledger.CreatePending(ctx, user.ID, m.Cost, model.KindMovie, m.ID, "", nil, nil)
	if err != nil {
		log.Errorf("bot: create movie transaction: %v", err)
		e.say(ev.ChatID, "Sorry, an error occurred during the purchase process. Please try again later.")
		return
	}

	e.say(ev.ChatID, fmt.Sprintf(
		"Please confirm your purchase:\n\n🎬 Movie: %s\n💰 Price: KES %s\n\nTransaction code: %s\n\nPlease send your M-Pesa phone number (format: 254XXXXXXXXX) to complete the transaction.",
		m.Title, m.Cost.StringFixed(2), code))

	e.sessions.Set(ev.UserID, session.Session{
		State:           session.AwaitingPhone,
		Kind:            model.KindMovie,
		TransactionCode: code,
		ContentID:       m.ID,
	})
}

// purchaseSeries re-resolves the episodes for the stored range, prices the
// available ones and creates the pending transaction that the payment will
// settle.
func (e *Engine) purchaseSeries(ctx context.Context, ev Event, user model.User, seriesID uint64, rangeText string) {
	start, end, ok := ParseEpisodeRange(rangeText)
	if !ok {
		e.say(ev.ChatID, "Invalid episode range. Please try again.")
		return
	}
	s, err := e.series.GetByID(ctx, seriesID)
	if err != nil {
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		if isNotFound(err) {
			e.say(ev.ChatID, "Sorry, this series is no longer available.")
			return
		}
		log.Errorf("bot: load series %d: %v", seriesID, err)
		e.say(ev.ChatID, "Sorry, an error occurred during the purchase process. Please try again later.")
		return
	}
	episodes, err := e.series.EpisodesInRange(ctx, s.ID, start, end)
	if err != nil {
		log.Errorf("bot: episodes %d [%d-%d]: %v", s.ID, start, end, err)
		e.say(ev.ChatID, "Sorry, an error occurred during the purchase process. Please try again later.")
		return
	}
	if len(episodes) == 0 {
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		e.say(ev.ChatID, "No episodes found in the specified range. Please try a different range.")
		return
	}

	total, _ := rangeSummary(episodes, start, end)
	code, err := e.ledger.CreatePending(ctx, user.ID, total, model.KindSeries, s.ID, formatRange(start, end), &start, &end)
	if err != nil {
		log.Errorf("bot: create series transaction: %v", err)
		e.say(ev.ChatID, "Sorry, an error occurred during the purchase process. Please try again later.")
		return
	}

	e.say(ev.ChatID, fmt.Sprintf(
		"Please confirm your purchase:\n\n📺 Series: %s\n🔢 Episodes: %s (%d episodes)\n💰 Total Price: KES %s\n\nTransaction code: %s\n\nPlease send your M-Pesa phone number (format: 254XXXXXXXXX) to complete the transaction.",
		s.Title, formatRange(start, end), len(episodes), total.StringFixed(2), code))

	e.sessions.Set(ev.UserID, session.Session{
		State:           session.AwaitingPhone,
		Kind:            model.KindSeries,
		TransactionCode: code,
		ContentID:       s.ID,
		EpisodeRange:    formatRange(start, end),
	})
}

// capturePhone validates the payment number and fires the STK push for the
// pending transaction's amount.  An invalid number re-prompts in place; a
// gateway failure is reported but the transaction stays pending so an
// out-of-band status poll can still reconcile it.
func (e *Engine) capturePhone(ctx context.Context, ev Event, sess session.Session) {
	phone := strings.TrimSpace(ev.Text)
	if !mpesa.ValidPhone(phone) {
		e.say(ev.ChatID, "Invalid phone number format. Please use the format: 254XXXXXXXXX")
		return
	}

	tx, err := e.ledger.GetByCode(ctx, sess.TransactionCode)
	if err != nil {
		e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
		if isNotFound(err) {
			e.say(ev.ChatID, "Sorry, this purchase is no longer available. Please start again from the menu.")
			return
		}
		log.Errorf("bot: load transaction %s: %v", sess.TransactionCode, err)
		e.say(ev.ChatID, "Sorry, an error occurred during the payment process. Please try again later.")
		return
	}

	e.say(ev.ChatID, fmt.Sprintf("Processing payment for transaction %s with phone number %s...", tx.Code, phone))

	res := e.gateway.Initiate(ctx, phone, tx.Amount, tx.Code)
	if res.Accepted {
		e.say(ev.ChatID, "Payment request sent. Please complete the payment on your phone. You will receive your content after payment confirmation.")
	} else {
		e.say(ev.ChatID, "Payment failed: "+res.Error)
	}
	e.sessions.Set(ev.UserID, session.Session{State: session.Idle})
}

// showTransactions prints the user's recent ledger entries.
func (e *Engine) showTransactions(ctx context.Context, ev Event, user model.User) {
	txs, err := e.ledger.ListByUser(ctx, user.ID, 10)
	if err != nil {
		log.Errorf("bot: list transactions for %d: %v", user.ID, err)
		e.say(ev.ChatID, "Sorry, an error occurred while loading your transactions. Please try again later.")
		return
	}
	if len(txs) == 0 {
		e.say(ev.ChatID, "You have no transactions yet. Use /movies or /series to browse content.")
		return
	}
	var b strings.Builder
	b.WriteString("💳 Your recent transactions:\n")
	for _, t := range txs {
		fmt.Fprintf(&b, "\n%s · %s · KES %s · %s · %s",
			t.Code, t.Kind, t.Amount.StringFixed(2), t.Status, t.CreatedAt.Format("02 Jan 2006"))
	}
	e.say(ev.ChatID, b.String())
}

func (e *Engine) say(chatID int64, text string) {
	if err := e.sender.SendText(chatID, text); err != nil {
		log.Errorf("bot: send to %d: %v", chatID, err)
	}
}

// ParseEpisodeRange parses "N" or "N-M" into an inclusive interval.  It
// rejects descending intervals and anything non-numeric.
func ParseEpisodeRange(text string) (start, end int, ok bool) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	end = start
	if m[2] != "" {
		end, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

// rangeSummary totals the available episodes and lists the requested
// numbers that are absent.
func rangeSummary(episodes []model.Episode, start, end int) (decimal.Decimal, []int) {
	total := decimal.Zero
	present := make(map[int]bool, len(episodes))
	for _, ep := range episodes {
		total = total.Add(ep.Cost)
		present[ep.EpisodeNumber] = true
	}
	var missing []int
	for n := start; n <= end; n++ {
		if !present[n] {
			missing = append(missing, n)
		}
	}
	return total, missing
}

func formatRange(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

const helpText = `Movie and Series Bot Help

This bot lets you browse and purchase movies and series.

Available commands:
/start - Start the bot and show the main menu
/movies - Browse available movies
/series - Browse available series
/transactions - View your transaction history
/help - Show this help message

How to purchase a movie:
1. Use /movies and enter the title
2. Pick a movie and press Purchase
3. Send your M-Pesa phone number
4. Complete the payment on your phone
5. Receive your movie

How to purchase series episodes:
1. Use /series and enter the title
2. Send an episode range (e.g. 1-5)
3. Press Purchase and send your M-Pesa phone number
4. Complete the payment on your phone
5. Receive your episodes`
