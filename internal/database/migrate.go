package database

import (
	"context"
	"database/sql"
)

// Migrate creates the application tables if they do not exist.  Statements
// are idempotent so the function is safe to run on every startup.  Episodes
// cascade on series deletion and transactions cascade on user deletion;
// transaction codes carry a UNIQUE constraint which backs the ledger's
// collision guarantee.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id INT PRIMARY KEY AUTO_INCREMENT,
			username VARCHAR(50) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			email VARCHAR(100) NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			telegram_id BIGINT NOT NULL UNIQUE,
			username VARCHAR(100),
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS movies (
			id INT PRIMARY KEY AUTO_INCREMENT,
			title VARCHAR(255) NOT NULL,
			thumbnail VARCHAR(255),
			file_id VARCHAR(255) NOT NULL,
			cost DECIMAL(10, 2) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS series (
			id INT PRIMARY KEY AUTO_INCREMENT,
			title VARCHAR(255) NOT NULL,
			thumbnail VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id INT PRIMARY KEY AUTO_INCREMENT,
			series_id INT NOT NULL,
			episode_number INT NOT NULL,
			file_id VARCHAR(255) NOT NULL,
			poster VARCHAR(255),
			cost DECIMAL(10, 2) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (series_id) REFERENCES series(id) ON DELETE CASCADE,
			UNIQUE KEY unique_episode_per_series (series_id, episode_number)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			transaction_code VARCHAR(100) NOT NULL UNIQUE,
			amount DECIMAL(10, 2) NOT NULL,
			type ENUM('movie', 'series') NOT NULL,
			content_id INT NOT NULL,
			episode_range VARCHAR(50),
			start_ep INT,
			end_ep INT,
			payment_method VARCHAR(50) NOT NULL,
			status ENUM('pending', 'completed', 'failed') DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INT PRIMARY KEY AUTO_INCREMENT,
			bot_token VARCHAR(255),
			welcome_message TEXT,
			mpesa_consumer_key VARCHAR(100),
			mpesa_consumer_secret VARCHAR(100),
			mpesa_passkey VARCHAR(100),
			mpesa_shortcode VARCHAR(50),
			mpesa_callback_url VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
