package auth

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/authentiscan/identity-service/internal/core/domain"
)

// Validity windows per OTP purpose.
const (
	VerifyOTPTTL = 24 * time.Hour
	ResetOTPTTL  = time.Hour
)

// OTPGenerator produces 6-digit numeric codes with an expiry timestamp.
type OTPGenerator struct {
	now func() time.Time
}

func NewOTPGenerator() *OTPGenerator {
	return &OTPGenerator{now: time.Now}
}

// Generate returns a code drawn uniformly from [100000, 999999], expiring
// ttl from now.
// TODO: draw codes from crypto/rand.
func (g *OTPGenerator) Generate(ttl time.Duration) domain.OTP {
	code := strconv.Itoa(100000 + rand.IntN(900000))
	return domain.OTP{
		Code:      code,
		ExpiresAt: g.now().UTC().Add(ttl),
	}
}
