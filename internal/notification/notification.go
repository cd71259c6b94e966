package notification

import (
	"context"
	"log/slog"
)

// SMSSender delivers one-time codes to a phone number.
type SMSSender interface {
	SendOTP(ctx context.Context, phoneNumber, code string) error
}

// MailSender delivers one-time codes to an email address.
type MailSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LoggerSender is a stub implementation that writes deliveries to the
// logger instead of an external gateway. Used in development and tests.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging delivery stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// SendOTP writes the delivery to the structured logger.
func (s *LoggerSender) SendOTP(_ context.Context, destination, code string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("otp delivery", "destination", destination, "code", code)
	return nil
}
