package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "KivuKYC"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultIdemTTL       = 24 * time.Hour
	defaultOTPTTL        = 5 * time.Minute
	defaultEmailOTPTTL   = 5 * time.Minute
	defaultOTPAttempts   = 5
	defaultCertTTL       = 30 * 24 * time.Hour
	defaultRecoveryTTL   = 15 * time.Minute
	defaultTokenIssuer   = "kivu-kyc"
	defaultPoWDifficulty = 4

	defaultCSP               = "default-src 'self'"
	defaultReferrerPolicy    = "strict-origin-when-cross-origin"
	defaultPermissionsPolicy = "geolocation=(), microphone=(), camera=()"
	defaultHSTSMaxAge        = 31536000
)

// SecurityHeaders controls the response-header policy applied by the HTTP
// layer. Every option is applied independently of the others.
type SecurityHeaders struct {
	Enabled               bool
	CSPDirectives         string
	XSSProtection         bool
	XFrameOptions         bool
	ReferrerPolicy        string
	PermissionsPolicy     string
	HSTSMaxAgeSeconds     int
	HSTSIncludeSubDomains bool
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// OTP engine
	OTPSalt        string
	OTPTTL         time.Duration
	OTPMaxAttempts int
	EmailOTPTTL    time.Duration

	// Tokens and device certificates
	TokenIssuer     string
	SigningKeyPEM   string
	ReviewAuthority string
	RecoveryTTL     time.Duration
	DeviceCertTTL   time.Duration
	KYCCertTTL      time.Duration
	PoWDifficulty   int

	// Delivery gateways
	SMSGatewayURL   string
	SMSGatewayToken string
	SMSSenderID     string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string

	Headers SecurityHeaders
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdemTTL,

		OTPSalt:        os.Getenv("OTP_SALT"),
		OTPTTL:         defaultOTPTTL,
		OTPMaxAttempts: defaultOTPAttempts,
		EmailOTPTTL:    defaultEmailOTPTTL,

		TokenIssuer:     getEnv("TOKEN_ISSUER", defaultTokenIssuer),
		SigningKeyPEM:   os.Getenv("SIGNING_KEY_PEM"),
		ReviewAuthority: getEnv("REVIEW_AUTHORITY", "ROLE_REVIEWER"),
		RecoveryTTL:     defaultRecoveryTTL,
		DeviceCertTTL:   defaultCertTTL,
		KYCCertTTL:      defaultCertTTL,
		PoWDifficulty:   defaultPoWDifficulty,

		SMSGatewayURL:   os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayToken: os.Getenv("SMS_GATEWAY_TOKEN"),
		SMSSenderID:     getEnv("SMS_SENDER_ID", defaultAppName),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        587,
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:        os.Getenv("SMTP_FROM"),

		Headers: SecurityHeaders{
			Enabled:               getBool("SECURITY_HEADERS_ENABLED", true),
			CSPDirectives:         getEnv("CSP_POLICY_DIRECTIVES", defaultCSP),
			XSSProtection:         getBool("X_XSS_PROTECTION", true),
			XFrameOptions:         getBool("X_FRAME_OPTIONS", true),
			ReferrerPolicy:        getEnv("REFERRER_POLICY", defaultReferrerPolicy),
			PermissionsPolicy:     getEnv("PERMISSIONS_POLICY", defaultPermissionsPolicy),
			HSTSMaxAgeSeconds:     defaultHSTSMaxAge,
			HSTSIncludeSubDomains: getBool("HSTS_INCLUDE_SUBDOMAINS", true),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", cfg.OTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.EmailOTPTTL, err = getDuration("EMAIL_OTP_TTL", cfg.EmailOTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.RecoveryTTL, err = getDuration("RECOVERY_TOKEN_TTL", cfg.RecoveryTTL); err != nil {
		return Config{}, err
	}
	if cfg.DeviceCertTTL, err = getDuration("DEVICE_CERT_TTL", cfg.DeviceCertTTL); err != nil {
		return Config{}, err
	}
	if cfg.KYCCertTTL, err = getDuration("KYC_CERT_TTL", cfg.KYCCertTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPMaxAttempts, err = getInt("OTP_MAX_ATTEMPTS", cfg.OTPMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.PoWDifficulty, err = getInt("POW_DIFFICULTY", cfg.PoWDifficulty); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", cfg.SMTPPort); err != nil {
		return Config{}, err
	}
	if cfg.Headers.HSTSMaxAgeSeconds, err = getInt("HSTS_MAX_AGE_SECONDS", cfg.Headers.HSTSMaxAgeSeconds); err != nil {
		return Config{}, err
	}

	// Development runs on in-memory stores when no backing services are
	// configured, so the store URLs are only mandatory elsewhere.
	if !cfg.Dev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	}
	if cfg.OTPSalt == "" {
		return Config{}, fmt.Errorf("OTP_SALT must be set")
	}

	return cfg, nil
}

// Dev reports whether the app runs under a development environment name.
func (c Config) Dev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getDuration accepts either KEY_SECONDS as an integer or KEY as a Go duration.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}
