package model

import "time"

// Admin is a panel operator.  Admins authenticate against the HTTP API with
// username and password and receive a short-lived JWT.
type Admin struct {
    ID           uint64    // admins.id
    Username     string    // admins.username
    PasswordHash string    // admins.password_hash
    Email        string    // admins.email
    CreatedAt    time.Time // admins.created_at
    UpdatedAt    time.Time // admins.updated_at
}

// Settings holds runtime-editable bot and gateway configuration.  Values
// stored here override the corresponding environment variables after the
// next restart; the admin API exposes them for the panel.
type Settings struct {
    ID                  uint64    // settings.id
    BotToken            string    // settings.bot_token
    WelcomeMessage      string    // settings.welcome_message
    MpesaConsumerKey    string    // settings.mpesa_consumer_key
    MpesaConsumerSecret string    // settings.mpesa_consumer_secret
    MpesaPassKey        string    // settings.mpesa_passkey
    MpesaShortCode      string    // settings.mpesa_shortcode
    MpesaCallbackURL    string    // settings.mpesa_callback_url
    UpdatedAt           time.Time // settings.updated_at
}
