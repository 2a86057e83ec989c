package ports

import (
	"context"
	"time"

	"github.com/authentiscan/identity-service/internal/core/domain"
)

// UserRepository defines persistence for account records.
//
// ConsumeVerifyOTP and ConsumeResetOTP are single atomic read-check-clear
// operations: the stored code must equal the given code and must not be past
// its expiry at `now`, all checked inside one conditional update. Two
// concurrent confirmations of the same code can therefore never both
// succeed; the loser observes consumed=false.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error

	// ConsumeVerifyOTP marks the account verified and clears the verify slot.
	ConsumeVerifyOTP(ctx context.Context, id, code string, now time.Time) (consumed bool, err error)
	// ConsumeResetOTP overwrites the password hash and clears the reset slot.
	ConsumeResetOTP(ctx context.Context, id, code, newPasswordHash string, now time.Time) (consumed bool, err error)
}
