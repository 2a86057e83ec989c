package mail

import (
	"fmt"

	"github.com/authentiscan/identity-service/internal/core/ports"
)

// render maps a mail kind to its subject and plain-text body.
func render(m ports.OutboundMail) (subject, body string, err error) {
	switch m.Kind {
	case ports.MailWelcome:
		return "Welcome to AuthentiScan",
			fmt.Sprintf("Welcome to AuthentiScan. Your account has been created with email: %s.", m.To),
			nil
	case ports.MailVerifyOTP:
		return "Account Verification OTP",
			fmt.Sprintf("Your verification OTP is %s. It is valid for 24 hours.", m.Code),
			nil
	case ports.MailResetOTP:
		return "Password Reset OTP",
			fmt.Sprintf("Your password reset OTP is %s. It is valid for 1 hour.", m.Code),
			nil
	default:
		return "", "", fmt.Errorf("unknown mail kind %q", m.Kind)
	}
}
