package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/infrastructure/sns"
	"github.com/vehicle-market-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// ForgotPasswordMessage is returned for every accepted reset request, whether or
// not the account exists.
const ForgotPasswordMessage = "If the email is registered, you will receive a password reset code"

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordResult struct {
	Message string `json:"message"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// ResetCodeStatus is the answer of a non-consuming code check.
type ResetCodeStatus struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	ExpiresIn *int64 `json:"expiresIn,omitempty"` // seconds
}

func (s *service) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResult, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := s.throttle(ctx, s.resetLimiter, email); err != nil {
		return nil, err
	}
	res := &ForgotPasswordResult{Message: ForgotPasswordMessage}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return res, nil
		}
		return nil, err
	}
	if !u.IsLocal() {
		return res, nil
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.issue(ctx, email, domain.VerificationPasswordReset, code, ResetCodeTTL); err != nil {
		return nil, err
	}
	if err := s.mailer.SendPasswordResetCode(ctx, u.Email, u.Name, code, ResetCodeTTL); err != nil {
		return nil, fmt.Errorf("deliver reset code: %w", err)
	}
	return res, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	email := domain.NormalizeEmail(req.Email)
	if err := s.verify(ctx, email, domain.VerificationPasswordReset, req.Code); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("account not found: %w", domain.ErrNotFound)
		}
		return err
	}
	if !u.IsLocal() {
		return domain.ErrWrongLoginMethod
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.consume(ctx, email, domain.VerificationPasswordReset, req.Code); err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.UserID, string(hash)); err != nil {
		return err
	}

	slog.Info("password reset", "user_id", u.UserID)
	s.publish(ctx, sns.SecurityEvent{Type: sns.EventPasswordReset, UserID: u.UserID, Email: u.Email})
	return nil
}

// CheckResetCode reports whether code would currently be accepted for email. It never
// consumes, deletes or counts against the pending code.
func (s *service) CheckResetCode(ctx context.Context, email, code string) (*ResetCodeStatus, error) {
	email = domain.NormalizeEmail(email)
	if err := s.throttle(ctx, s.resetCheckLimiter, email); err != nil {
		return nil, err
	}

	v, err := s.pending(ctx, email, domain.VerificationPasswordReset)
	if err != nil {
		if errors.Is(err, domain.ErrNoPendingCode) {
			return &ResetCodeStatus{Message: "Code not found"}, nil
		}
		return nil, err
	}
	now := s.now().Unix()
	if v.Expired(now) {
		return &ResetCodeStatus{Message: "Code expired"}, nil
	}
	if !otp.Equal(v.Code, code) {
		return &ResetCodeStatus{Message: "Code is incorrect"}, nil
	}
	remaining := v.ExpiresAt - now
	return &ResetCodeStatus{Valid: true, Message: "Code is valid", ExpiresIn: &remaining}, nil
}
