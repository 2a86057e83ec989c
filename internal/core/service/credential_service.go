package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/authentiscan/identity-service/internal/core/auth"
	"github.com/authentiscan/identity-service/internal/core/domain"
	"github.com/authentiscan/identity-service/internal/core/ports"
)

// CredentialService orchestrates registration, login, email verification and
// password reset. All outbound mail goes through the queue: a committed
// account mutation is never rolled back because delivery failed.
type CredentialService struct {
	repo   ports.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
	otps   *auth.OTPGenerator
	mailq  ports.MailQueue
	logger zerolog.Logger
	now    func() time.Time
}

func NewCredentialService(
	repo ports.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	otps *auth.OTPGenerator,
	mailq ports.MailQueue,
	logger zerolog.Logger,
) *CredentialService {
	return &CredentialService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		otps:   otps,
		mailq:  mailq,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates an unverified account, queues the welcome mail and
// returns a freshly issued session token.
func (s *CredentialService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	if name == "" || email == "" || password == "" {
		return "", nil, domain.ErrMissingFields
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return "", nil, err
	}

	s.mailq.Enqueue(ports.OutboundMail{To: created.Email, Kind: ports.MailWelcome})
	s.logger.Info().Str("user_id", created.ID).Msg("user registered")

	return token, created, nil
}

// Login matches the password against the stored hash and issues a session
// token. Verification status does not gate login.
func (s *CredentialService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidPassword
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// RequestVerifyOTP stores a fresh verification code (replacing any previous
// one) and queues the mail carrying it.
func (s *CredentialService) RequestVerifyOTP(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return domain.ErrAlreadyVerified
	}

	otp := s.otps.Generate(auth.VerifyOTPTTL)
	user.VerifyOTP = &otp
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.mailq.Enqueue(ports.OutboundMail{To: user.Email, Kind: ports.MailVerifyOTP, Code: otp.Code})
	s.logger.Info().Str("user_id", user.ID).Msg("verification otp issued")
	return nil
}

// ConfirmVerifyOTP validates the code against the stored verify slot and,
// on success, marks the account verified and clears the slot in one atomic
// repository update. A code that lost a race to a concurrent confirmation
// surfaces as ErrInvalidOTP.
func (s *CredentialService) ConfirmVerifyOTP(ctx context.Context, userID, code string) error {
	if code == "" {
		return domain.ErrMissingOTP
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return domain.ErrAlreadyVerified
	}

	now := s.now().UTC()
	if err := checkOTP(user.VerifyOTP, code, now); err != nil {
		return err
	}

	consumed, err := s.repo.ConsumeVerifyOTP(ctx, user.ID, code, now)
	if err != nil {
		return err
	}
	if !consumed {
		return domain.ErrInvalidOTP
	}

	s.logger.Info().Str("user_id", user.ID).Msg("account verified")
	return nil
}

// RequestResetOTP stores a fresh reset code for the account owning the
// email and queues the mail carrying it.
func (s *CredentialService) RequestResetOTP(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	otp := s.otps.Generate(auth.ResetOTPTTL)
	user.ResetOTP = &otp
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.mailq.Enqueue(ports.OutboundMail{To: user.Email, Kind: ports.MailResetOTP, Code: otp.Code})
	s.logger.Info().Str("user_id", user.ID).Msg("reset otp issued")
	return nil
}

// ConfirmReset validates the reset code and, on success, overwrites the
// password hash and clears the slot in one atomic repository update.
func (s *CredentialService) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" || newPassword == "" {
		return domain.ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if err := checkOTP(user.ResetOTP, code, now); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	consumed, err := s.repo.ConsumeResetOTP(ctx, user.ID, code, hash, now)
	if err != nil {
		return err
	}
	if !consumed {
		return domain.ErrInvalidOTP
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// Profile returns the account for a verified session subject.
func (s *CredentialService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// checkOTP classifies a presented code against a stored slot. Expiry is
// boundary-inclusive: the slot is still valid at exactly ExpiresAt.
func checkOTP(stored *domain.OTP, code string, now time.Time) error {
	if stored == nil || stored.Code == "" || stored.Code != code {
		return domain.ErrInvalidOTP
	}
	if stored.Expired(now) {
		return domain.ErrExpiredOTP
	}
	return nil
}
