package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/internal/app/controller"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/db"
	"github.com/wastebill/wastebill-backend/internal/metrics"
	"github.com/wastebill/wastebill-backend/internal/middleware"
	"github.com/wastebill/wastebill-backend/internal/router"
	"github.com/wastebill/wastebill-backend/internal/scheduler"
	"github.com/wastebill/wastebill-backend/internal/storage"
	"github.com/wastebill/wastebill-backend/internal/websocket"
	"github.com/wastebill/wastebill-backend/pkg/line"
	"github.com/wastebill/wastebill-backend/pkg/util"
)

const (
	testJWTSecret     = "integration-secret"
	bootstrapUser     = "root"
	bootstrapPassword = "change-me-please"
)

type lineStub map[string]string

func (l lineStub) VerifyIDToken(ctx context.Context, idToken string) (*line.IDTokenClaims, error) {
	sub, ok := l[idToken]
	if !ok {
		return nil, line.ErrInvalidIDToken
	}
	return &line.IDTokenClaims{Subject: sub, Name: "LINE name"}, nil
}

type TestServer struct {
	Router *gin.Engine
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)
	require.NoError(t, util.RegisterValidators())

	// Setup database
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	bootstrap := &config.BootstrapConfig{AdminUsername: bootstrapUser, AdminPassword: bootstrapPassword}
	require.NoError(t, db.Seed(testDB, bootstrap))

	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode},
		Storage: config.StorageConfig{PublicPath: "/uploads", MaxUploadBytes: 1 << 20},
		Billing: config.BillingConfig{CronSpec: "0 14 1 * *", Timezone: "Asia/Bangkok", DueDay: 15},
	}
	loc := cfg.Billing.Location()

	store, err := storage.NewLocalStorage(t.TempDir(), cfg.Storage.PublicPath)
	require.NoError(t, err)

	hub := websocket.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	appMetrics := metrics.New("wastebill_it")

	// Setup repositories
	userRepo := repository.NewUserRepository(testDB)
	adminRepo := repository.NewAdminRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	recordRepo := repository.NewWasteRecordRepository(testDB)
	billRepo := repository.NewBillRepository(testDB)

	// Setup services
	auditService := service.NewAuditService(repository.NewAuditRepository(testDB))
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(testDB), nil, appMetrics)
	authService := service.WithTokenRevoker(
		service.NewAuthService(userRepo, adminRepo, lineStub{"liff-token": "U-integration"}, notificationService, testJWTSecret, 15*time.Minute, time.Hour),
		func(ctx context.Context, jti string, ttl time.Duration) error { return nil },
	)
	priceService := service.NewWastePriceService(testDB, repository.NewWastePriceRepository(testDB), auditService)
	recordService := service.NewWasteRecordService(recordRepo, addressRepo, priceService, auditService, loc)
	billingService := service.NewBillingService(service.BillingServiceDeps{
		DB:            testDB,
		BillRepo:      billRepo,
		RecordRepo:    recordRepo,
		AddressRepo:   addressRepo,
		Prices:        priceService,
		Audit:         auditService,
		Notifications: notificationService,
		Events:        hub,
		Metrics:       appMetrics,
		Location:      loc,
		DueDay:        cfg.Billing.DueDay,
	})
	slipService := service.NewPaymentSlipService(service.PaymentSlipServiceDeps{
		DB:             testDB,
		SlipRepo:       repository.NewPaymentSlipRepository(testDB),
		BillRepo:       billRepo,
		Storage:        store,
		Audit:          auditService,
		Notifications:  notificationService,
		Events:         hub,
		Metrics:        appMetrics,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	billingScheduler := scheduler.NewBillingScheduler(billingService, cfg.Billing.CronSpec, loc)

	// Setup controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Admin:        controller.NewAdminController(service.NewAdminService(adminRepo, auditService, testJWTSecret, 15*time.Minute, time.Hour)),
		Address:      controller.NewAddressController(service.NewAddressService(addressRepo, auditService)),
		User:         controller.NewUserController(service.NewUserService(userRepo, auditService, notificationService)),
		Waste:        controller.NewWasteController(recordService, loc),
		Price:        controller.NewPriceController(priceService),
		Bill:         controller.NewBillController(billingService, billingScheduler, loc),
		PaymentSlip:  controller.NewPaymentSlipController(slipService, cfg.Storage.MaxUploadBytes),
		Issue:        controller.NewIssueController(service.NewIssueService(repository.NewIssueRepository(testDB), addressRepo, auditService, notificationService, hub)),
		Notification: controller.NewNotificationController(notificationService),
		Report:       controller.NewReportController(service.NewReportService(billRepo, recordRepo, addressRepo, auditService, loc), auditService, loc),
		LiveFeed:     controller.NewLiveFeedController(hub),
	}

	r := router.NewRouter(controllers, middleware.NewAuthMiddleware(testJWTSecret), appMetrics, nil, cfg, store.Root())
	return &TestServer{Router: r.Setup()}
}

func (ts *TestServer) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != service.XLSXContentType {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func idOf(v interface{}) uint {
	return uint(v.(map[string]interface{})["id"].(float64))
}

func accessToken(resp map[string]interface{}) string {
	return resp["tokens"].(map[string]interface{})["access_token"].(string)
}

func TestCompleteBillingJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	// 1. Resident registers through LINE and adds a household address
	code, resp := ts.call(t, http.MethodPost, "/api/v1/auth/line/register", "", map[string]string{
		"id_token":   "liff-token",
		"name":       "สมชาย ใจดี",
		"id_card_no": "1234567890121",
		"phone_no":   "0812345678",
	})
	require.Equal(t, http.StatusCreated, code, resp)
	residentToken := accessToken(resp)
	userID := idOf(resp["user"])

	code, resp = ts.call(t, http.MethodPost, "/api/v1/addresses", residentToken, map[string]string{
		"house_no":     "99/1",
		"village":      "หมู่ 3",
		"sub_district": "ในเมือง",
		"district":     "เมือง",
		"province":     "ขอนแก่น",
		"postal_code":  "40000",
	})
	require.Equal(t, http.StatusCreated, code, resp)
	address := resp["address"].(map[string]interface{})
	addressID := idOf(address)
	barcode := address["barcode"].(string)
	assert.Equal(t, util.FormatAddressBarcode(addressID), barcode)

	// 2. Super admin logs in and verifies the resident and the address
	code, resp = ts.call(t, http.MethodPost, "/api/v1/admin/auth/login", "", map[string]string{
		"username": bootstrapUser,
		"password": bootstrapPassword,
	})
	require.Equal(t, http.StatusOK, code, resp)
	adminToken := accessToken(resp)

	code, resp = ts.call(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/verify", userID), adminToken, nil)
	require.Equal(t, http.StatusOK, code, resp)
	code, resp = ts.call(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/addresses/%d/verify", addressID), adminToken, nil)
	require.Equal(t, http.StatusOK, code, resp)

	// 3. Collector scans the bin and records January waste
	code, resp = ts.call(t, http.MethodGet, "/api/v1/admin/addresses/scan/"+barcode, adminToken, nil)
	require.Equal(t, http.StatusOK, code, resp)

	code, resp = ts.call(t, http.MethodPost, "/api/v1/admin/waste-records", adminToken, map[string]interface{}{
		"address_id":    addressID,
		"weights":       map[string]string{"general": "10"},
		"recorded_date": "2025-01-15",
	})
	require.Equal(t, http.StatusCreated, code, resp)

	// 4. Monthly run bills January
	code, resp = ts.call(t, http.MethodPost, "/api/v1/admin/bills/generate", adminToken, map[string]string{"period": "2025-01"})
	require.Equal(t, http.StatusOK, code, resp)
	assert.EqualValues(t, 1, resp["summary"].(map[string]interface{})["created"])

	// 5. Resident sees the unpaid bill
	code, resp = ts.call(t, http.MethodGet, "/api/v1/bills?status=0", residentToken, nil)
	require.Equal(t, http.StatusOK, code, resp)
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	bill := items[0].(map[string]interface{})
	billID := idOf(bill)
	assert.Equal(t, "2025-01", bill["period_key"])
	assert.True(t, decimal.RequireFromString(bill["amount_due"].(string)).Equal(decimal.NewFromInt(20)))

	// 6. Resident uploads a slip; the bill waits for review
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="slip.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\xff\xd8\xff fake jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("bill_ids", fmt.Sprint(billID)))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment-slips", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+residentToken)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var uploaded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	slipID := idOf(uploaded["slip"])

	code, resp = ts.call(t, http.MethodGet, fmt.Sprintf("/api/v1/bills/%d", billID), residentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, model.BillStatusPending, resp["bill"].(map[string]interface{})["status"])

	// 7. Admin approves; the bill is paid
	code, resp = ts.call(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/payment-slips/%d/review", slipID), adminToken, map[string]string{
		"decision": "approved",
	})
	require.Equal(t, http.StatusOK, code, resp)

	code, resp = ts.call(t, http.MethodGet, fmt.Sprintf("/api/v1/bills/%d", billID), residentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, model.BillStatusPaid, resp["bill"].(map[string]interface{})["status"])

	// 8. Resident inbox collected the notifications
	code, resp = ts.call(t, http.MethodGet, "/api/v1/notifications", residentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Greater(t, resp["unread_count"].(float64), float64(0))

	// 9. Finance report downloads as xlsx and the audit log shows the trail
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/finance?from=2025-01-01&to=2030-12-31", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "finance_20250101_20301231.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	code, resp = ts.call(t, http.MethodGet, "/api/v1/admin/audit-logs", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.GreaterOrEqual(t, resp["total"].(float64), float64(4))
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := setupIntegrationTest(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/me"},
		{http.MethodGet, "/api/v1/bills"},
		{http.MethodPost, "/api/v1/payment-slips"},
		{http.MethodGet, "/api/v1/admin/bills"},
		{http.MethodGet, "/api/v1/admin/reports/finance"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, _ := ts.call(t, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}

func TestPublicPriceTable(t *testing.T) {
	ts := setupIntegrationTest(t)

	code, resp := ts.call(t, http.MethodGet, "/api/v1/prices", "", nil)

	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, resp)
}
