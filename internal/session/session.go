// Package session holds per-user conversational state for the bot.  A
// session is keyed by Telegram user id and records where in a purchase flow
// the user currently is, plus the context that flow needs (selected series,
// pending transaction code).  Sessions are ephemeral: losing one only means
// the user has to restart a flow from the menu.
package session

import "time"

// State enumerates the positions in the conversation state machine.  Every
// user starts at Idle and every flow branch eventually returns there.
type State string

const (
    Idle                 State = "IDLE"
    AwaitingMovieTitle   State = "WAITING_FOR_MOVIE_TITLE"
    AwaitingSeriesTitle  State = "WAITING_FOR_SERIES_TITLE"
    AwaitingEpisodeRange State = "WAITING_FOR_EPISODE_RANGE"
    AwaitingPhone        State = "WAITING_FOR_PHONE"
)

// Session is the context payload attached to a state.  Which fields are
// meaningful depends on State: SeriesID while awaiting an episode range,
// the transaction fields while awaiting a phone number.
type Session struct {
    State           State  `json:"state"`
    SeriesID        uint64 `json:"series_id,omitempty"`
    Kind            string `json:"kind,omitempty"`
    TransactionCode string `json:"transaction_code,omitempty"`
    ContentID       uint64 `json:"content_id,omitempty"`
    EpisodeRange    string `json:"episode_range,omitempty"`

    UpdatedAt time.Time `json:"updated_at"`
}

// Store is the keyed session store contract.  Get is a total function: an
// unknown user receives a fresh Idle session.  Set overwrites the user's
// session whole; the engine always writes complete sessions, so no
// field-merge semantics are needed at this layer.
type Store interface {
    Get(userID int64) Session
    Set(userID int64, s Session)
}
