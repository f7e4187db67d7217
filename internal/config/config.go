package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types

    "github.com/shopspring/decimal"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the
// optional ones fall back to defaults that work for local development.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    DBMigrate      bool   // apply the embedded schema at startup
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing

    MediaRoot      string // directory holding uploaded booking documents
    MaxUploadBytes int64  // upper bound for a single uploaded document

    // AdvocateFee is the one-off registration fee.  A zero fee activates
    // advocates at registration time and disables the payment endpoints.
    AdvocateFee decimal.Decimal

    RazorpayKeyID     string
    RazorpayKeySecret string
    RazorpayBaseURL   string

    RabbitURL string // AMQP broker for booking events (empty disables the consumer)
    SentryDSN string // empty disables error reporting
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        DBMigrate:      envBool("DB_MIGRATE", false),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),

        MediaRoot:      envStr("MEDIA_ROOT", "media"),
        MaxUploadBytes: int64(envInt("MAX_UPLOAD_BYTES", 10<<20)),
        AdvocateFee:    envDecimal("ADVOCATE_FEE", decimal.Zero),

        RazorpayKeyID:     envStr("RAZORPAY_KEY_ID", "rzp_test_key"),
        RazorpayKeySecret: envStr("RAZORPAY_KEY_SECRET", "rzp_test_secret"),
        RazorpayBaseURL:   envStr("RAZORPAY_BASE_URL", "https://api.razorpay.com"),

        RabbitURL: rabbitURL(),
        SentryDSN: os.Getenv("SENTRY_DSN"),
    }
}

// PaymentsEnabled reports whether advocates must pay a registration fee
// before they become bookable.
func (c Config) PaymentsEnabled() bool { return c.AdvocateFee.IsPositive() }

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "local" }

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

func envDecimal(k string, d decimal.Decimal) decimal.Decimal {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    n, err := decimal.NewFromString(v)
    if err != nil || n.IsNegative() {
        log.Fatalf("invalid decimal for %s: %q", k, v)
    }
    return n
}

func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}
