package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/infrastructure/google"
	"github.com/vehicle-market-api/internal/infrastructure/sns"
	"github.com/vehicle-market-api/internal/infrastructure/sqlstore"
	"github.com/vehicle-market-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

const (
	LoginCodeTTL = 5 * time.Minute
	ResetCodeTTL = 15 * time.Minute

	// MaxCodeAttempts is the number of wrong guesses that burns a pending code.
	MaxCodeAttempts = 5

	// PhotoDir is the object-store prefix for profile photos.
	PhotoDir = "profile-photos"

	// appVersionPremium is assigned to accounts created through Google sign-in.
	appVersionPremium = "P"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     string  `json:"name" validate:"required,min=2,max=255"`
	Photo    *Upload `json:"-"`
}

// Upload is a file received with a request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// LoginChallenge is returned by step 1 of the password login.
type LoginChallenge struct {
	RequiresOTP bool   `json:"requiresOTP"`
	Message     string `json:"message"`
}

// AuthResult carries a freshly issued session token.
type AuthResult struct {
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
	Created bool         `json:"-"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginChallenge, error)
	VerifyLoginCode(ctx context.Context, req VerifyLoginRequest) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResult, error)
	RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResult, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	CheckResetCode(ctx context.Context, email, code string) (*ResetCodeStatus, error)
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.UserVerification) error
	Get(ctx context.Context, subject, verType string) (*domain.UserVerification, error)
	Delete(ctx context.Context, subject, verType string) error
	Consume(ctx context.Context, subject, verType, code string) error
	RecordFailure(ctx context.Context, subject, verType string) (int, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetBySubject(ctx context.Context, subject string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID uint, updates map[string]interface{}) error
	UpdatePasswordHash(ctx context.Context, userID uint, hash string) error
}

type codeMailer interface {
	SendLoginCode(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendPasswordResetCode(ctx context.Context, to, name, code string, ttl time.Duration) error
}

type tokenSigner interface {
	Sign(u *domain.User) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type photoStore interface {
	Upload(ctx context.Context, dir, filename string, r io.Reader, contentType string) (string, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, ev sns.SecurityEvent) error
}

type limiter interface {
	Allow(ctx context.Context, key string) error
}

// ServiceDeps groups the dependencies of the auth service. Google, Photos, Events and
// the limiters are optional.
type ServiceDeps struct {
	VerificationRepo verificationStore
	UserRepo         userStore
	Mailer           codeMailer
	JWTProvider      tokenSigner
	Google           googleVerifier
	Photos           photoStore
	Events           eventPublisher

	LoginLimiter      limiter
	ResetLimiter      limiter
	ResetCheckLimiter limiter

	Now func() time.Time
}

type service struct {
	verifications verificationStore
	users         userStore
	mailer        codeMailer
	jwt           tokenSigner
	google        googleVerifier
	photos        photoStore
	events        eventPublisher

	loginLimiter      limiter
	resetLimiter      limiter
	resetCheckLimiter limiter

	now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		verifications:     deps.VerificationRepo,
		users:             deps.UserRepo,
		mailer:            deps.Mailer,
		jwt:               deps.JWTProvider,
		google:            deps.Google,
		photos:            deps.Photos,
		events:            deps.Events,
		loginLimiter:      deps.LoginLimiter,
		resetLimiter:      deps.ResetLimiter,
		resetCheckLimiter: deps.ResetCheckLimiter,
		now:               now,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginChallenge, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := s.throttle(ctx, s.loginLimiter, email); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsLocal() {
		return nil, domain.ErrWrongLoginMethod
	}
	if u.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.issue(ctx, loginSubject(u.UserID), domain.VerificationLoginOTP, code, LoginCodeTTL); err != nil {
		return nil, err
	}
	if err := s.mailer.SendLoginCode(ctx, u.Email, u.Name, code, LoginCodeTTL); err != nil {
		return nil, fmt.Errorf("deliver login code: %w", err)
	}
	return &LoginChallenge{RequiresOTP: true, Message: "A verification code was sent to your email"}, nil
}

func (s *service) VerifyLoginCode(ctx context.Context, req VerifyLoginRequest) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoPendingCode
		}
		return nil, err
	}

	subject := loginSubject(u.UserID)
	if err := s.verify(ctx, subject, domain.VerificationLoginOTP, req.OTP); err != nil {
		return nil, err
	}
	if err := s.consume(ctx, subject, domain.VerificationLoginOTP, req.OTP); err != nil {
		return nil, err
	}

	res, err := s.session(u, false)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, sns.SecurityEvent{Type: sns.EventLoginSucceeded, UserID: u.UserID, Email: u.Email, Method: "password"})
	return res, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	h := string(hash)
	u := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		FirebaseUID:  domain.LocalSubject(email),
		PasswordHash: &h,
	}

	if req.Photo != nil && s.photos != nil {
		url, err := s.photos.Upload(ctx, PhotoDir, req.Photo.Filename, req.Photo.Body, req.Photo.ContentType)
		if err != nil {
			slog.Warn("profile photo upload failed, registering without photo", "email", email, "err", err)
		} else {
			u.PhotoURL = &url
		}
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u, true)
}

func (s *service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrUnauthorized)
	}
	p, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetBySubject(ctx, p.Sub)
	switch {
	case err == nil:
		if err := s.refreshProfile(ctx, u, p, false); err != nil {
			return nil, err
		}
		return s.googleSession(ctx, u, false)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	email := domain.NormalizeEmail(p.Email)
	if !p.EmailVerified || email == "" {
		return nil, fmt.Errorf("google account email is not verified: %w", domain.ErrUnauthorized)
	}

	u, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.refreshProfile(ctx, u, p, true); err != nil {
			return nil, err
		}
		slog.Info("linked google identity to existing account", "user_id", u.UserID)
		return s.googleSession(ctx, u, false)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	u = &domain.User{
		Email:       email,
		Name:        p.Name,
		FirebaseUID: p.Sub,
		AppVersion:  appVersionPremium,
	}
	if u.Name == "" {
		u.Name = strings.SplitN(email, "@", 2)[0]
	}
	if p.Picture != "" {
		pic := p.Picture
		u.PhotoURL = &pic
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.googleSession(ctx, u, true)
}

// refreshProfile copies the Google name and picture onto u and, when link is set,
// replaces the provider subject with the Google one.
func (s *service) refreshProfile(ctx context.Context, u *domain.User, p *google.Payload, link bool) error {
	updates := map[string]interface{}{}
	if link {
		updates[sqlstore.ColumnFirebaseUID] = p.Sub
	}
	if p.Name != "" && p.Name != u.Name {
		updates[sqlstore.ColumnName] = p.Name
	}
	if p.Picture != "" && (u.PhotoURL == nil || *u.PhotoURL != p.Picture) {
		updates[sqlstore.ColumnPhotoURL] = p.Picture
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.users.Update(ctx, u.UserID, updates); err != nil {
		return err
	}
	if link {
		u.FirebaseUID = p.Sub
	}
	if v, ok := updates[sqlstore.ColumnName]; ok {
		u.Name = v.(string)
	}
	if _, ok := updates[sqlstore.ColumnPhotoURL]; ok {
		pic := p.Picture
		u.PhotoURL = &pic
	}
	return nil
}

func (s *service) googleSession(ctx context.Context, u *domain.User, created bool) (*AuthResult, error) {
	res, err := s.session(u, created)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, sns.SecurityEvent{Type: sns.EventLoginSucceeded, UserID: u.UserID, Email: u.Email, Method: "google"})
	return res, nil
}

func (s *service) session(u *domain.User, created bool) (*AuthResult, error) {
	token, err := s.jwt.Sign(u)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &AuthResult{Token: token, User: u, Created: created}, nil
}

// issue stores a new code for subject, replacing any pending one.
func (s *service) issue(ctx context.Context, subject, verType, code string, ttl time.Duration) error {
	now := s.now()
	return s.verifications.Put(ctx, &domain.UserVerification{
		Subject:   subject,
		Type:      verType,
		Code:      code,
		ExpiresAt: now.Add(ttl).Unix(),
		CreatedAt: now.Unix(),
	})
}

// verify checks code against the pending record without consuming it. Expired
// records are deleted; wrong guesses are counted and burn the record at
// MaxCodeAttempts.
func (s *service) verify(ctx context.Context, subject, verType, code string) error {
	v, err := s.pending(ctx, subject, verType)
	if err != nil {
		return err
	}
	if v.Expired(s.now().Unix()) {
		if err := s.verifications.Delete(ctx, subject, verType); err != nil {
			slog.Warn("failed to delete expired verification", "type", verType, "err", err)
		}
		return domain.ErrCodeExpired
	}
	if otp.Equal(v.Code, code) {
		return nil
	}

	attempts, err := s.verifications.RecordFailure(ctx, subject, verType)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("failed to record verification attempt", "type", verType, "err", err)
		}
		return domain.ErrCodeMismatch
	}
	if attempts >= MaxCodeAttempts {
		if err := s.verifications.Delete(ctx, subject, verType); err != nil {
			slog.Warn("failed to delete exhausted verification", "type", verType, "err", err)
		}
		return domain.ErrTooManyAttempts
	}
	return domain.ErrCodeMismatch
}

// consume deletes the pending record if it still holds code. Losing a race to
// another request surfaces as ErrNoPendingCode.
func (s *service) consume(ctx context.Context, subject, verType, code string) error {
	if err := s.verifications.Consume(ctx, subject, verType, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoPendingCode
		}
		return err
	}
	return nil
}

func (s *service) pending(ctx context.Context, subject, verType string) (*domain.UserVerification, error) {
	v, err := s.verifications.Get(ctx, subject, verType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoPendingCode
		}
		return nil, err
	}
	return v, nil
}

// throttle applies l to key. A nil limiter or an unreachable Redis lets the call through.
func (s *service) throttle(ctx context.Context, l limiter, key string) error {
	if l == nil {
		return nil
	}
	err := l.Allow(ctx, key)
	if err == nil || errors.Is(err, domain.ErrTooManyRequests) {
		return err
	}
	slog.Warn("rate limiter unavailable, allowing request", "err", err)
	return nil
}

func (s *service) publish(ctx context.Context, ev sns.SecurityEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish security event", "type", ev.Type, "user_id", ev.UserID, "err", err)
	}
}

func loginSubject(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// checkPassword enforces the password length floor for callers that bypass
// request validation.
func checkPassword(pw string) error {
	if len(pw) < domain.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", domain.MinPasswordLength, domain.ErrBadRequest)
	}
	return nil
}
