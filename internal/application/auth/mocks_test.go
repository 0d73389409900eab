package auth

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/infrastructure/google"
	"github.com/vehicle-market-api/internal/infrastructure/sns"
)

// memVerifications is an in-memory verificationStore with the same conditional
// semantics as the DynamoDB repository.
type memVerifications struct {
	mu    sync.Mutex
	items map[string]domain.UserVerification
}

func newMemVerifications() *memVerifications {
	return &memVerifications{items: map[string]domain.UserVerification{}}
}

func vkey(subject, verType string) string { return subject + "|" + verType }

func (m *memVerifications) Put(_ context.Context, v *domain.UserVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[vkey(v.Subject, v.Type)] = *v
	return nil
}

func (m *memVerifications) Get(_ context.Context, subject, verType string) (*domain.UserVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[vkey(subject, verType)]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (m *memVerifications) Delete(_ context.Context, subject, verType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, vkey(subject, verType))
	return nil
}

func (m *memVerifications) Consume(_ context.Context, subject, verType, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[vkey(subject, verType)]
	if !ok || v.Code != code {
		return fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	delete(m.items, vkey(subject, verType))
	return nil
}

func (m *memVerifications) RecordFailure(_ context.Context, subject, verType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[vkey(subject, verType)]
	if !ok {
		return 0, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	v.Attempts++
	m.items[vkey(subject, verType)] = v
	return v.Attempts, nil
}

func (m *memVerifications) lookup(subject, verType string) (domain.UserVerification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[vkey(subject, verType)]
	return v, ok
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetBySubject(ctx context.Context, subject string) (*domain.User, error) {
	args := m.Called(ctx, subject)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID uint, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) UpdatePasswordHash(ctx context.Context, userID uint, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

// mockMailer records the last code sent to each recipient.
type mockMailer struct {
	mock.Mock
	mu    sync.Mutex
	codes map[string]string
}

func (m *mockMailer) record(to, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
}

func (m *mockMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

func (m *mockMailer) SendLoginCode(ctx context.Context, to, name, code string, ttl time.Duration) error {
	m.record(to, code)
	return m.Called(ctx, to, name, code, ttl).Error(0)
}
func (m *mockMailer) SendPasswordResetCode(ctx context.Context, to, name, code string, ttl time.Duration) error {
	m.record(to, code)
	return m.Called(ctx, to, name, code, ttl).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(u *domain.User) (string, error) {
	args := m.Called(u)
	return args.String(0), args.Error(1)
}

type mockGoogle struct{ mock.Mock }

func (m *mockGoogle) Verify(ctx context.Context, token string) (*google.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPhotos struct{ mock.Mock }

func (m *mockPhotos) Upload(ctx context.Context, dir, filename string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, dir, filename, r, contentType)
	return args.String(0), args.Error(1)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) Publish(ctx context.Context, ev sns.SecurityEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Allow(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
