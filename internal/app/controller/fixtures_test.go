package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/db"
	"github.com/wastebill/wastebill-backend/internal/middleware"
	"github.com/wastebill/wastebill-backend/internal/storage"
	"github.com/wastebill/wastebill-backend/pkg/line"
	"github.com/wastebill/wastebill-backend/pkg/util"
	"gorm.io/gorm"
)

const testJWTSecret = "controller-test-secret"

var bangkok = time.FixedZone("ICT", 7*60*60)

type stubVerifier struct {
	claims map[string]*line.IDTokenClaims
}

func (v *stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*line.IDTokenClaims, error) {
	if idToken == "down" {
		return nil, context.DeadlineExceeded
	}
	if c, ok := v.claims[idToken]; ok {
		return c, nil
	}
	return nil, line.ErrInvalidIDToken
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// stubRunner records on-demand runs instead of touching the database
type stubRunner struct {
	calls []*service.Actor
}

func (r *stubRunner) RunNow(ctx context.Context, actor *service.Actor) (*service.RunSummary, error) {
	r.calls = append(r.calls, actor)
	return &service.RunSummary{Period: "2025-01"}, nil
}

type testServer struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Verifier *stubVerifier
	Runner   *stubRunner

	mu      sync.Mutex
	revoked map[string]bool
}

func setupControllerTest(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	require.NoError(t, util.RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.Seed(testDB, nil))

	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ts := &testServer{
		DB:       testDB,
		Verifier: &stubVerifier{claims: map[string]*line.IDTokenClaims{}},
		Runner:   &stubRunner{},
		revoked:  map[string]bool{},
	}

	userRepo := repository.NewUserRepository(testDB)
	adminRepo := repository.NewAdminRepository(testDB)
	addrRepo := repository.NewAddressRepository(testDB)
	billRepo := repository.NewBillRepository(testDB)
	recordRepo := repository.NewWasteRecordRepository(testDB)

	audit := service.NewAuditService(repository.NewAuditRepository(testDB))
	notifications := service.NewNotificationService(repository.NewNotificationRepository(testDB), nil, nil)
	authService := service.WithTokenRevoker(
		service.NewAuthService(userRepo, adminRepo, ts.Verifier, notifications, testJWTSecret, 15*time.Minute, time.Hour),
		func(ctx context.Context, jti string, ttl time.Duration) error {
			ts.mu.Lock()
			defer ts.mu.Unlock()
			ts.revoked[jti] = true
			return nil
		},
	)
	prices := service.NewWastePriceService(testDB, repository.NewWastePriceRepository(testDB), audit)
	billingService := service.NewBillingService(service.BillingServiceDeps{
		DB:            testDB,
		BillRepo:      billRepo,
		RecordRepo:    recordRepo,
		AddressRepo:   addrRepo,
		Prices:        prices,
		Audit:         audit,
		Notifications: notifications,
		Events:        nopPublisher{},
		Location:      bangkok,
		DueDay:        15,
	})
	slipService := service.NewPaymentSlipService(service.PaymentSlipServiceDeps{
		DB:             testDB,
		SlipRepo:       repository.NewPaymentSlipRepository(testDB),
		BillRepo:       billRepo,
		Storage:        store,
		Audit:          audit,
		Notifications:  notifications,
		Events:         nopPublisher{},
		MaxUploadBytes: 1024,
	})

	authCtrl := NewAuthController(authService)
	billCtrl := NewBillController(billingService, ts.Runner, bangkok)
	slipCtrl := NewPaymentSlipController(slipService, 1024)

	auth := middleware.NewAuthMiddleware(testJWTSecret).WithRevocationChecker(
		func(ctx context.Context, jti string) (bool, error) {
			ts.mu.Lock()
			defer ts.mu.Unlock()
			return ts.revoked[jti], nil
		},
	)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	v1 := router.Group("/api/v1")
	v1.POST("/auth/line/register", authCtrl.RegisterWithLine)
	v1.POST("/auth/line/login", authCtrl.LoginWithLine)
	v1.POST("/auth/refresh", authCtrl.RefreshToken)
	v1.POST("/auth/logout", auth.Authenticate(), authCtrl.Logout)

	resident := v1.Group("", auth.Authenticate(), auth.RequireResident())
	resident.GET("/me", authCtrl.GetMe)
	resident.PUT("/me", authCtrl.UpdateMe)
	resident.GET("/bills", billCtrl.ListMyBills)
	resident.GET("/bills/:id", billCtrl.GetMyBill)
	resident.POST("/payment-slips", slipCtrl.Upload)
	resident.GET("/payment-slips", slipCtrl.ListMySlips)

	admin := v1.Group("/admin", auth.Authenticate(), auth.RequireAdmin())
	bills := admin.Group("/bills", auth.RequirePermission(middleware.PermBillsManage))
	bills.GET("", billCtrl.ListBills)
	bills.POST("/generate", billCtrl.GenerateMonthly)
	bills.PUT("/:id/status", billCtrl.UpdateBillStatus)
	slips := admin.Group("/payment-slips", auth.RequirePermission(middleware.PermSlipsReview))
	slips.GET("", slipCtrl.ListSlips)
	slips.GET("/:id", slipCtrl.GetSlip)
	slips.PUT("/:id/review", slipCtrl.Review)

	ts.Router = router
	return ts
}

func (ts *testServer) resident(t *testing.T, lineID string) (*model.User, string) {
	user := &model.User{LineUserID: lineID, Name: "สมหญิง รักษ์โลก", PhoneNo: "0812345678", VerifyStatus: model.VerifyStatusVerified}
	require.NoError(t, ts.DB.Create(user).Error)
	tokens, err := util.GenerateTokenPair(user.ID, user.LineUserID, model.ResidentRole, testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (ts *testServer) admin(t *testing.T, username string, role model.AdminRole) string {
	acc := &model.AdminAccount{Username: username, PasswordHash: "x", FullName: "Staff", Role: role, Active: true}
	require.NoError(t, ts.DB.Create(acc).Error)
	tokens, err := util.GenerateTokenPair(acc.ID, acc.Username, string(role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (ts *testServer) address(t *testing.T, userID uint) *model.Address {
	addr := &model.Address{
		UserID:      userID,
		HouseNo:     "12/3",
		SubDistrict: "ในเมือง",
		District:    "เมือง",
		Province:    "ขอนแก่น",
		AddressType: model.AddressHousehold,
		Verified:    true,
	}
	require.NoError(t, ts.DB.Create(addr).Error)
	return addr
}

func (ts *testServer) bill(t *testing.T, addressID uint, status model.BillStatus, amount string) *model.Bill {
	bill := &model.Bill{
		AddressID: addressID,
		Kind:      model.BillKindManual,
		AmountDue: decimal.RequireFromString(amount),
		DueDate:   time.Now().Add(14 * 24 * time.Hour).UTC(),
		Status:    status,
	}
	require.NoError(t, ts.DB.Create(bill).Error)
	return bill
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
