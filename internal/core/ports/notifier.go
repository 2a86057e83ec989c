package ports

import "context"

// Mail kinds, used for dedup keys and metric labels.
const (
	MailWelcome   = "welcome"
	MailVerifyOTP = "verify_otp"
	MailResetOTP  = "reset_otp"
)

// OutboundMail is a message awaiting delivery. The core emits only the
// recipient, kind and code; rendering subject and body from templates is the
// notifier's concern.
type OutboundMail struct {
	To   string
	Kind string
	// Code is the OTP carried in the body, empty for non-OTP mail.
	// Part of the dedup key so a superseding OTP is never suppressed.
	Code string
}

// Notifier delivers a single message to its recipient.
type Notifier interface {
	Send(ctx context.Context, m OutboundMail) error
}

// MailQueue accepts messages for asynchronous, best-effort delivery.
// Enqueue never blocks the caller on delivery and never reports delivery
// failure: committed account mutations must not be rolled back because a
// mail could not be sent.
type MailQueue interface {
	Enqueue(m OutboundMail)
}

// MailDeduper suppresses duplicate deliveries of the same message.
type MailDeduper interface {
	AlreadySent(ctx context.Context, m OutboundMail) (bool, error)
	MarkSent(ctx context.Context, m OutboundMail) error
}
