package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jkamau/filamu/internal/model"
)

// SettingsRepo reads and writes the single runtime-settings row.  The row
// is created lazily on first update; Get returns zero values until then.
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

const settingsCols = `id, COALESCE(bot_token,''), COALESCE(welcome_message,''),
    COALESCE(mpesa_consumer_key,''), COALESCE(mpesa_consumer_secret,''),
    COALESCE(mpesa_passkey,''), COALESCE(mpesa_shortcode,''),
    COALESCE(mpesa_callback_url,''), updated_at`

// Get returns the settings row, or an empty Settings when none exists yet.
func (r *SettingsRepo) Get(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+settingsCols+" FROM settings ORDER BY id ASC LIMIT 1").Scan(
		&s.ID, &s.BotToken, &s.WelcomeMessage,
		&s.MpesaConsumerKey, &s.MpesaConsumerSecret,
		&s.MpesaPassKey, &s.MpesaShortCode, &s.MpesaCallbackURL, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, nil
	}
	return s, err
}

// Update overwrites only the non-empty fields, COALESCE-style, so the panel
// can submit partial edits.  The row is inserted if missing.
func (r *SettingsRepo) Update(ctx context.Context, s model.Settings) error {
	existing, err := r.Get(ctx)
	if err != nil {
		return err
	}
	if existing.ID == 0 {
		_, err = r.DB.ExecContext(ctx,
			`INSERT INTO settings (bot_token, welcome_message, mpesa_consumer_key, mpesa_consumer_secret, mpesa_passkey, mpesa_shortcode, mpesa_callback_url)
             VALUES (?,?,?,?,?,?,?)`,
			s.BotToken, s.WelcomeMessage, s.MpesaConsumerKey, s.MpesaConsumerSecret,
			s.MpesaPassKey, s.MpesaShortCode, s.MpesaCallbackURL)
		return err
	}
	const q = `UPDATE settings SET
        bot_token = COALESCE(NULLIF(?, ''), bot_token),
        welcome_message = COALESCE(NULLIF(?, ''), welcome_message),
        mpesa_consumer_key = COALESCE(NULLIF(?, ''), mpesa_consumer_key),
        mpesa_consumer_secret = COALESCE(NULLIF(?, ''), mpesa_consumer_secret),
        mpesa_passkey = COALESCE(NULLIF(?, ''), mpesa_passkey),
        mpesa_shortcode = COALESCE(NULLIF(?, ''), mpesa_shortcode),
        mpesa_callback_url = COALESCE(NULLIF(?, ''), mpesa_callback_url),
        updated_at = CURRENT_TIMESTAMP
        WHERE id = ?`
	_, err = r.DB.ExecContext(ctx, q,
		s.BotToken, s.WelcomeMessage, s.MpesaConsumerKey, s.MpesaConsumerSecret,
		s.MpesaPassKey, s.MpesaShortCode, s.MpesaCallbackURL, existing.ID)
	return err
}
