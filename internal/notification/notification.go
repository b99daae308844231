package notification

import (
	"context"
	"fmt"
	"log/slog"
)

// Message is one outbound SMS.
type Message struct {
	PhoneNumber string
	Body        string
}

// Sender delivers SMS messages to a downstream gateway.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// LoggerSender is a stub implementation that writes messages to the logger.
// It stands in for the real SMS gateway in development and tests.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging sender stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Send writes the message to the structured logger.
func (s *LoggerSender) Send(_ context.Context, message Message) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("sms", "phone_number", message.PhoneNumber, "body", message.Body)
	return nil
}

// VerificationCodeBody formats the SMS body for a login verification code.
func VerificationCodeBody(code string) string {
	return fmt.Sprintf("Your verification code is %s", code)
}
