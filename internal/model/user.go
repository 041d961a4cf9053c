package model

import "time"

// User is a Telegram user known to the bot.  Users are created on their
// first inbound message and are never deleted by the bot itself.
//
// Fields:
//  ID         – primary key identifier.
//  TelegramID – stable Telegram account id (unique).
//  Username   – Telegram @username, may be empty.
//  FirstName  – first name as reported by Telegram.
//  LastName   – last name as reported by Telegram.
//  IsActive   – soft-deactivation flag managed by the admin panel.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type User struct {
    ID         uint64    // users.id
    TelegramID int64     // users.telegram_id
    Username   string    // users.username
    FirstName  string    // users.first_name
    LastName   string    // users.last_name
    IsActive   bool      // users.is_active
    CreatedAt  time.Time // users.created_at
    UpdatedAt  time.Time // users.updated_at
}
