package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/internal/db"
	"github.com/wastebill/wastebill-backend/internal/storage"
	"github.com/wastebill/wastebill-backend/pkg/line"
	"gorm.io/gorm"
)

const testJWTSecret = "service-test-secret"

var bangkok = mustLoadLocation("Asia/Bangkok")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type pushedMessage struct {
	To   string
	Text string
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushedMessage
	err  error
}

func (p *fakePusher) PushText(ctx context.Context, to, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, pushedMessage{To: to, Text: text})
	return nil
}

func (p *fakePusher) Sent() []pushedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushedMessage(nil), p.sent...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (p *fakePublisher) Publish(eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	p.data = append(p.data, data)
}

func (p *fakePublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

var errLineDown = errors.New("connection refused")

// fakeVerifier accepts tokens registered in claims; "down" simulates an outage
type fakeVerifier struct {
	claims map[string]*line.IDTokenClaims
}

func (v *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*line.IDTokenClaims, error) {
	if idToken == "down" {
		return nil, errLineDown
	}
	c, ok := v.claims[idToken]
	if !ok {
		return nil, line.ErrInvalidIDToken
	}
	return c, nil
}

type testEnv struct {
	DB        *gorm.DB
	Pusher    *fakePusher
	Events    *fakePublisher
	Verifier  *fakeVerifier
	Storage   *storage.LocalStorage
	Revoked   map[string]time.Duration
	Admin     Actor
	UserRepo  repository.UserRepository
	AddrRepo  repository.AddressRepository
	BillRepo  repository.BillRepository
	SlipRepo  repository.PaymentSlipRepository
	AdminRepo repository.AdminRepository

	Audit         AuditService
	Notifications NotificationService
	Auth          AuthService
	Admins        AdminService
	Users         UserService
	Addresses     AddressService
	Prices        WastePriceService
	Records       WasteRecordService
	Billing       BillingService
	Slips         PaymentSlipService
	Issues        IssueService
	Reports       ReportService
}

func setupServiceTest(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.Seed(testDB, nil))

	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	env := &testEnv{
		DB:       testDB,
		Pusher:   &fakePusher{},
		Events:   &fakePublisher{},
		Verifier: &fakeVerifier{claims: map[string]*line.IDTokenClaims{}},
		Storage:  store,
		Revoked:  map[string]time.Duration{},
	}

	env.UserRepo = repository.NewUserRepository(testDB)
	env.AddrRepo = repository.NewAddressRepository(testDB)
	env.BillRepo = repository.NewBillRepository(testDB)
	env.SlipRepo = repository.NewPaymentSlipRepository(testDB)
	env.AdminRepo = repository.NewAdminRepository(testDB)
	priceRepo := repository.NewWastePriceRepository(testDB)
	recordRepo := repository.NewWasteRecordRepository(testDB)
	issueRepo := repository.NewIssueRepository(testDB)

	env.Audit = NewAuditService(repository.NewAuditRepository(testDB))
	env.Notifications = NewNotificationService(repository.NewNotificationRepository(testDB), env.Pusher, nil)
	env.Auth = WithTokenRevoker(
		NewAuthService(env.UserRepo, env.AdminRepo, env.Verifier, env.Notifications, testJWTSecret, 15*time.Minute, time.Hour),
		func(ctx context.Context, jti string, ttl time.Duration) error {
			env.Revoked[jti] = ttl
			return nil
		},
	)
	env.Admins = NewAdminService(env.AdminRepo, env.Audit, testJWTSecret, 15*time.Minute, time.Hour)
	env.Users = NewUserService(env.UserRepo, env.Audit, env.Notifications)
	env.Addresses = NewAddressService(env.AddrRepo, env.Audit)
	env.Prices = NewWastePriceService(testDB, priceRepo, env.Audit)
	env.Records = NewWasteRecordService(recordRepo, env.AddrRepo, env.Prices, env.Audit, bangkok)
	env.Billing = NewBillingService(BillingServiceDeps{
		DB:            testDB,
		BillRepo:      env.BillRepo,
		RecordRepo:    recordRepo,
		AddressRepo:   env.AddrRepo,
		Prices:        env.Prices,
		Audit:         env.Audit,
		Notifications: env.Notifications,
		Events:        env.Events,
		Location:      bangkok,
		DueDay:        15,
	})
	env.Slips = NewPaymentSlipService(PaymentSlipServiceDeps{
		DB:             testDB,
		SlipRepo:       env.SlipRepo,
		BillRepo:       env.BillRepo,
		Storage:        store,
		Audit:          env.Audit,
		Notifications:  env.Notifications,
		Events:         env.Events,
		MaxUploadBytes: 1024,
	})
	env.Issues = NewIssueService(issueRepo, env.AddrRepo, env.Audit, env.Notifications, env.Events)
	env.Reports = NewReportService(env.BillRepo, recordRepo, env.AddrRepo, env.Audit, bangkok)

	admin := &model.AdminAccount{Username: "staff01", PasswordHash: "x", FullName: "Staff", Role: model.AdminRoleSuperAdmin, Active: true}
	require.NoError(t, testDB.Create(admin).Error)
	env.Admin = Actor{ID: admin.ID, Role: admin.Role}
	return env
}

func (e *testEnv) resident(t *testing.T, lineID string, verified bool) *model.User {
	user := &model.User{LineUserID: lineID, Name: "สมหญิง รักษ์โลก", PhoneNo: "0812345678"}
	if verified {
		user.VerifyStatus = model.VerifyStatusVerified
	}
	require.NoError(t, e.DB.Create(user).Error)
	return user
}

func (e *testEnv) address(t *testing.T, userID uint, verified bool, addrType model.AddressType) *model.Address {
	addr := &model.Address{
		UserID:      userID,
		HouseNo:     "12/3",
		Village:     "บ้านโนน",
		SubDistrict: "ในเมือง",
		District:    "เมือง",
		Province:    "ขอนแก่น",
		AddressType: addrType,
		Verified:    verified,
	}
	require.NoError(t, e.DB.Create(addr).Error)
	return addr
}

func (e *testEnv) record(t *testing.T, addressID uint, wasteType billing.WasteType, kg string, at time.Time) {
	rec := &model.WasteRecord{
		AddressID:    addressID,
		WasteType:    wasteType,
		WeightKg:     decimal.RequireFromString(kg),
		RecordedDate: at.UTC(),
	}
	require.NoError(t, e.DB.Create(rec).Error)
}

func (e *testEnv) bill(t *testing.T, addressID uint, status model.BillStatus, amount string) *model.Bill {
	bill := &model.Bill{
		AddressID: addressID,
		Kind:      model.BillKindManual,
		AmountDue: decimal.RequireFromString(amount),
		DueDate:   time.Now().Add(14 * 24 * time.Hour).UTC(),
		Status:    status,
	}
	require.NoError(t, e.DB.Create(bill).Error)
	return bill
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
