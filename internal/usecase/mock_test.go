//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/adapter"
	"ai-image-studio/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newID(i int) string { return fmt.Sprintf("pay-%d", i) }

func timeFarFuture() time.Time { return time.Now().Add(24 * time.Hour) }

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Repositories
// =============================

// ---- In-memory UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	SaveFunc func(ctx context.Context, tx repository.Tx, u *model.User) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: map[string]*model.User{}}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// ---- In-memory CreditRepository ----

// MockCreditRepo mirrors the storage contract exactly: Adjust is a single
// conditional mutation under the lock, so concurrent callers observe the same
// semantics as the SQL implementation.
type MockCreditRepo struct {
	mu       sync.Mutex
	balances map[string]int64

	AdjustErr error
	GrantErr  error
}

var _ repository.CreditRepository = (*MockCreditRepo)(nil)

func NewMockCreditRepo() *MockCreditRepo {
	return &MockCreditRepo{balances: map[string]int64{}}
}

func (m *MockCreditRepo) GetBalance(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return b, nil
}

func (m *MockCreditRepo) Initialize(ctx context.Context, tx repository.Tx, userID string, startingCredits int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[userID]; ok {
		return domain.ErrAlreadyExists
	}
	m.balances[userID] = startingCredits
	return nil
}

func (m *MockCreditRepo) Adjust(ctx context.Context, tx repository.Tx, userID string, delta int64) error {
	if m.AdjustErr != nil {
		return m.AdjustErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if b+delta < 0 {
		return domain.ErrInsufficientCredits
	}
	m.balances[userID] = b + delta
	return nil
}

func (m *MockCreditRepo) Grant(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	if m.GrantErr != nil {
		return m.GrantErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] += amount
	return nil
}

func (m *MockCreditRepo) TotalOutstanding(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, b := range m.balances {
		sum += b
	}
	return sum, nil
}

// Balance is a test helper for direct assertions.
func (m *MockCreditRepo) Balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

// ---- In-memory PaymentRepository ----

type MockPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment

	SaveErr error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{payments: map[string]*model.Payment{}}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.SessionID == sessionID && sessionID != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) AttachSession(ctx context.Context, tx repository.Tx, paymentID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return domain.ErrNotFound
	}
	p.SessionID = sessionID
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) MarkCompletedIfPending(ctx context.Context, tx repository.Tx, paymentID, providerPaymentID string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCompleted
	p.ProviderPaymentID = providerPaymentID
	p.PaidAt = &paidAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) MarkCancelledIfPending(ctx context.Context, tx repository.Tx, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCancelled
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.payments {
		if p.Status == model.PaymentStatusCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

// Get is a test helper for direct assertions.
func (m *MockPaymentRepo) Get(id string) *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ---- In-memory AssetRepository ----

type MockAssetRepo struct {
	mu     sync.Mutex
	assets map[string]*model.Asset
}

var _ repository.AssetRepository = (*MockAssetRepo)(nil)

func NewMockAssetRepo() *MockAssetRepo {
	return &MockAssetRepo{assets: map[string]*model.Asset{}}
}

func (m *MockAssetRepo) Save(ctx context.Context, tx repository.Tx, a *model.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *MockAssetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAssetRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Asset
	for _, a := range m.assets {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockAssetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

func (m *MockAssetRepo) SetMirrored(ctx context.Context, tx repository.Tx, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.URL = url
	a.Mirrored = true
	return nil
}

// Get is a test helper for direct assertions.
func (m *MockAssetRepo) Get(id string) *model.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// =============================
// Transaction manager and locker
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx provides a way to control transaction behavior during tests.
// By default, it runs the function immediately without a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- In-memory Locker (implements redis.Locker port) ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrCheckoutInFlight
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// Held reports whether any lock is currently held (test helper).
func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*adapter.SessionStatus

	CreateErr  error
	VerifyFunc func(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error)
	GetFunc    func(ctx context.Context, sessionID string) (*adapter.SessionStatus, error)

	Created []adapter.CheckoutRequest
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: map[string]*adapter.SessionStatus{}}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	g.sessions[id] = &adapter.SessionStatus{Metadata: map[string]string{
		"payment_id": req.PaymentID,
		"user_id":    req.UserID,
		"credits":    fmt.Sprintf("%d", req.Credits),
	}}
	g.Created = append(g.Created, req)
	return &adapter.CheckoutSession{ID: id, URL: "https://pay.example.test/" + id}, nil
}

func (g *MockGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	if g.VerifyFunc != nil {
		return g.VerifyFunc(payload, signatureHeader)
	}
	return nil, domain.ErrInvalidSignature
}

func (g *MockGateway) GetSession(ctx context.Context, sessionID string) (*adapter.SessionStatus, error) {
	if g.GetFunc != nil {
		return g.GetFunc(ctx, sessionID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

// MarkPaid flips a mock session to paid.
func (g *MockGateway) MarkPaid(sessionID, providerPaymentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.sessions[sessionID]; ok {
		st.Paid = true
		st.ProviderPaymentID = providerPaymentID
	}
}

// MarkExpired flips a mock session to expired.
func (g *MockGateway) MarkExpired(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.sessions[sessionID]; ok {
		st.Expired = true
	}
}

// ---- Mock ImageGenerator ----

type MockGenerator struct {
	mu    sync.Mutex
	Calls int

	GenerateFunc func(ctx context.Context, req adapter.GenerationRequest) (*adapter.GeneratedImage, error)
}

var _ adapter.ImageGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GeneratedImage, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &adapter.GeneratedImage{URL: "https://provider.example.test/img.png"}, nil
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// ---- Mock ObjectStore ----

type MockStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	prefix  string

	UploadErr error
	DeleteErr error
	Deleted   []string
}

var _ adapter.ObjectStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{objects: map[string][]byte{}, prefix: "https://cdn.example.test"}
}

func (s *MockStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.prefix + "/" + key, nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, key)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *MockStore) KeyFromURL(url string) (string, error) {
	if len(url) <= len(s.prefix)+1 || url[:len(s.prefix)+1] != s.prefix+"/" {
		return "", domain.ErrInvalidArgument
	}
	return url[len(s.prefix)+1:], nil
}

func (s *MockStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// ---- Mock RemoteFetcher ----

type MockFetcher struct {
	Data        []byte
	ContentType string
	Err         error
}

var _ adapter.RemoteFetcher = (*MockFetcher)(nil)

func (f *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if f.Err != nil {
		return nil, "", f.Err
	}
	ct := f.ContentType
	if ct == "" {
		ct = "image/png"
	}
	data := f.Data
	if data == nil {
		data = []byte("png-bytes")
	}
	return data, ct, nil
}
