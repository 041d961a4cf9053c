package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time is used for duration-typed settings
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.  M-Pesa credentials are optional at startup; when absent the
// payment client reports a configuration failure at initiation time instead
// of preventing the bot from serving the catalog.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    JWTSecret      string        // secret used to sign admin JWTs
    AccessTTLMin   int           // admin access token time‑to‑live in minutes
    BcryptCost     int           // bcrypt cost for admin password hashing
    BotToken       string        // Telegram bot API token
    WelcomeMessage string        // greeting shown on /start (optional)
    SessionTTL     time.Duration // idle eviction threshold for conversation sessions
    Mpesa          MpesaConfig   // M-Pesa (Daraja) gateway settings
}

// MpesaConfig groups the Daraja API credentials.  BaseURL selects the
// sandbox or production endpoint; CallbackURL is the public URL the gateway
// posts STK results to.
type MpesaConfig struct {
    ConsumerKey    string // OAuth consumer key
    ConsumerSecret string // OAuth consumer secret
    PassKey        string // STK push pass key
    ShortCode      string // business short code (PartyB)
    CallbackURL    string // publicly reachable callback endpoint
    BaseURL        string // API base URL, defaults to the sandbox
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),              // environment (dev/test/prod)
        Port:           must("APP_PORT"),             // port to bind the HTTP server
        DBUser:         must("DB_USER"),              // database user
        DBPass:         os.Getenv("DB_PASS"),         // database password (empty allowed)
        DBHost:         must("DB_HOST"),              // database host
        DBPort:         must("DB_PORT"),              // database port
        DBName:         must("DB_NAME"),              // database name
        JWTSecret:      must("JWT_SECRET"),           // secret used for signing admin JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for admin access tokens in minutes
        BcryptCost:     mustInt("BCRYPT_COST"),       // bcrypt cost factor
        BotToken:       must("TELEGRAM_BOT_TOKEN"),   // bot token from BotFather
        WelcomeMessage: os.Getenv("WELCOME_MESSAGE"), // optional custom greeting
        SessionTTL:     envDur("SESSION_TTL", 30*time.Minute),
        Mpesa: MpesaConfig{
            ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
            ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
            PassKey:        os.Getenv("MPESA_PASSKEY"),
            ShortCode:      os.Getenv("MPESA_SHORTCODE"),
            CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
            BaseURL:        envStr("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
        },
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
