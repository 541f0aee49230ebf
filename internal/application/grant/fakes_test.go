package grant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// In-memory collaborators backing the service tests. The repositories honor
// the same contracts as the persistence layer: sentinel not-found errors and
// compare-and-swap semantics on status updates.

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type memReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*grant.Report
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[uuid.UUID]*grant.Report)}
}

func (r *memReportRepo) FindByID(_ context.Context, id uuid.UUID) (*grant.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (r *memReportRepo) versionsLocked(key grant.InstallmentKey) []*grant.Report {
	var out []*grant.Report
	for _, report := range r.reports {
		if report.Key() == key {
			out = append(out, report)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber > out[j].VersionNumber
	})
	return out
}

func (r *memReportRepo) FindVersions(_ context.Context, key grant.InstallmentKey) ([]grant.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []grant.Report
	for _, report := range r.versionsLocked(key) {
		out = append(out, *report)
	}
	return out, nil
}

func (r *memReportRepo) FindLatestVersion(_ context.Context, key grant.InstallmentKey) (*grant.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.versionsLocked(key)
	if len(versions) == 0 {
		return nil, shared.ErrNotFound
	}
	cp := *versions[0]
	return &cp, nil
}

func (r *memReportRepo) FindUnderReview(_ context.Context, key grant.InstallmentKey) (*grant.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.versionsLocked(key) {
		if report.IsUnderReview() {
			cp := *report
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReportRepo) CountVersions(_ context.Context, key grant.InstallmentKey) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.versionsLocked(key))), nil
}

func (r *memReportRepo) Create(_ context.Context, report *grant.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r *memReportRepo) UpdateStatusIfCurrent(_ context.Context, report *grant.Report, expected grant.ReportStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reports[report.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Status != expected {
		return shared.ErrInvalidState
	}
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r *memReportRepo) FindAll(_ context.Context, filter grant.ReportFilter) ([]grant.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []grant.Report
	for _, report := range r.reports {
		if filter.Status != nil && report.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && report.UserID != *filter.UserID {
			continue
		}
		out = append(out, *report)
	}
	return out, nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*grant.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*grant.Payment)}
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*grant.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *payment
	return &cp, nil
}

func (r *memPaymentRepo) FindByKey(_ context.Context, key grant.InstallmentKey) (*grant.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.Key() == key {
			cp := *payment
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPaymentRepo) FindByEnrollment(_ context.Context, enrollmentID uuid.UUID) ([]grant.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []grant.Payment
	for _, payment := range r.payments {
		if payment.EnrollmentID == enrollmentID {
			out = append(out, *payment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstallmentNumber < out[j].InstallmentNumber
	})
	return out, nil
}

func (r *memPaymentRepo) CreateBatch(_ context.Context, payments []*grant.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range payments {
		cp := *payment
		r.payments[payment.ID] = &cp
	}
	return nil
}

func (r *memPaymentRepo) Save(_ context.Context, payment *grant.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *memPaymentRepo) UpdateStatusIfCurrent(_ context.Context, payment *grant.Payment, expected grant.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[payment.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Status != expected {
		return shared.ErrInvalidState
	}
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *memPaymentRepo) FindAll(_ context.Context, filter grant.PaymentFilter) ([]grant.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []grant.Payment
	for _, payment := range r.payments {
		if filter.Status != nil && payment.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && payment.UserID != *filter.UserID {
			continue
		}
		out = append(out, *payment)
	}
	return out, nil
}

type memBankAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*grant.BankAccount
}

func newMemBankAccountRepo() *memBankAccountRepo {
	return &memBankAccountRepo{accounts: make(map[uuid.UUID]*grant.BankAccount)}
}

func (r *memBankAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*grant.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *memBankAccountRepo) FindByUser(_ context.Context, userID uuid.UUID) (*grant.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.UserID == userID {
			cp := *account
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBankAccountRepo) Create(_ context.Context, account *grant.BankAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *memBankAccountRepo) Save(_ context.Context, account *grant.BankAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

type memEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[uuid.UUID]*grant.Enrollment
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{enrollments: make(map[uuid.UUID]*grant.Enrollment)}
}

func (r *memEnrollmentRepo) FindByID(_ context.Context, id uuid.UUID) (*grant.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrollment, ok := r.enrollments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *enrollment
	return &cp, nil
}

func (r *memEnrollmentRepo) Create(_ context.Context, enrollment *grant.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *enrollment
	r.enrollments[enrollment.ID] = &cp
	return nil
}

func (r *memEnrollmentRepo) Save(_ context.Context, enrollment *grant.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *enrollment
	r.enrollments[enrollment.ID] = &cp
	return nil
}

func (r *memEnrollmentRepo) FindAll(_ context.Context, filter grant.EnrollmentFilter) ([]grant.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []grant.Enrollment
	for _, enrollment := range r.enrollments {
		if filter.Status != nil && enrollment.Status != *filter.Status {
			continue
		}
		out = append(out, *enrollment)
	}
	return out, nil
}

func (r *memEnrollmentRepo) Count(_ context.Context, filter grant.EnrollmentFilter) (int64, error) {
	found, err := r.FindAll(context.Background(), filter)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

type memAuditSink struct {
	mu       sync.Mutex
	records  []AuditRecord
	failNext bool
}

func (a *memAuditSink) Record(_ context.Context, record AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failNext {
		a.failNext = false
		return errors.New("audit sink unavailable")
	}
	a.records = append(a.records, record)
	return nil
}

func (a *memAuditSink) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.records))
	for i, record := range a.records {
		out[i] = record.Action
	}
	return out
}

type sentNotification struct {
	UserID   uuid.UUID
	Template string
	Data     map[string]any
}

type memNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *memNotifier) Notify(_ context.Context, userID uuid.UUID, templateKey string, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Template: templateKey, Data: data})
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("blob store unavailable")
	}
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return data, nil
}

func (s *memBlobStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + key, nil
}

type memIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// fakeTx passes the shared in-memory repositories straight through. It cannot
// roll back, so tests assert failure ordering instead of rollback effects.
type fakeTx struct {
	repos Repositories
	fail  error
}

func (t *fakeTx) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if t.fail != nil {
		return t.fail
	}
	return fn(ctx, t.repos)
}

type fixture struct {
	reports      *memReportRepo
	payments     *memPaymentRepo
	bankAccounts *memBankAccountRepo
	enrollments  *memEnrollmentRepo
	audit        *memAuditSink
	notifier     *memNotifier
	blobs        *memBlobStore
	idempotency  *memIdempotencyStore
	tx           *fakeTx
	clock        fixedClock
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		reports:      newMemReportRepo(),
		payments:     newMemPaymentRepo(),
		bankAccounts: newMemBankAccountRepo(),
		enrollments:  newMemEnrollmentRepo(),
		audit:        &memAuditSink{},
		notifier:     &memNotifier{},
		blobs:        newMemBlobStore(),
		idempotency:  newMemIdempotencyStore(),
		clock:        fixedClock{now: now},
	}
	f.tx = &fakeTx{repos: Repositories{
		Enrollments:  f.enrollments,
		Reports:      f.reports,
		Payments:     f.payments,
		BankAccounts: f.bankAccounts,
		Audit:        f.audit,
	}}
	return f
}

func (f *fixture) seedInstallment(userID uuid.UUID, month grant.ReferenceMonth) (*grant.Enrollment, *grant.Payment) {
	start := month.FirstOfMonth()
	enrollment, err := grant.NewEnrollment(
		uuid.New(), userID, uuid.New(), "ic",
		mustDecimal("700.00"), start, start.AddDate(1, 0, 0), 12,
	)
	if err != nil {
		panic(fmt.Sprintf("seed enrollment: %v", err))
	}
	if err := f.enrollments.Create(context.Background(), enrollment); err != nil {
		panic(err)
	}
	payments, err := enrollment.GeneratePayments()
	if err != nil {
		panic(err)
	}
	if err := f.payments.CreateBatch(context.Background(), payments); err != nil {
		panic(err)
	}
	return enrollment, payments[0]
}
