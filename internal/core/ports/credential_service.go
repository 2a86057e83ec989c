package ports

import (
	"context"

	"github.com/authentiscan/identity-service/internal/core/domain"
)

type CredentialService interface {
	Register(ctx context.Context, name, email, password string) (token string, user *domain.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	RequestVerifyOTP(ctx context.Context, userID string) error
	ConfirmVerifyOTP(ctx context.Context, userID, code string) error
	RequestResetOTP(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, email, code, newPassword string) error
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
