package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/internal/websocket"
	"github.com/wastebill/wastebill-backend/pkg/logger"
)

func bkk(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, bangkok)
}

func TestBillingService_GenerateMonthly(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	owner := env.resident(t, "U1", true)
	billed := env.address(t, owner.ID, true, model.AddressHousehold)
	idle := env.address(t, owner.ID, true, model.AddressHousehold)
	unverified := env.address(t, owner.ID, false, model.AddressHousehold)

	env.record(t, billed.ID, billing.WasteGeneral, "10", bkk(2026, 9, 5, 9, 0))
	env.record(t, billed.ID, billing.WasteRecyclable, "3", bkk(2026, 9, 30, 23, 30))
	env.record(t, billed.ID, billing.WasteGeneral, "7", bkk(2026, 10, 1, 0, 10))
	env.record(t, unverified.ID, billing.WasteGeneral, "4", bkk(2026, 9, 10, 9, 0))

	summary, err := env.Billing.GenerateMonthly(ctx, 2026, time.September, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-09", summary.Period)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)

	page, err := env.Billing.ListBills(repository.BillFilter{AddressID: &billed.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	bill, err := env.Billing.GetBill(page.Items[0].ID)
	require.NoError(t, err)

	// 10 kg general at 2 baht, 3 kg recyclable bought back at 1 baht
	assert.Equal(t, "17.00", bill.AmountDue.StringFixed(2))
	assert.Equal(t, "13.00", bill.TotalWeightKg.StringFixed(2))
	assert.Equal(t, model.BillKindMonthly, bill.Kind)
	require.NotNil(t, bill.PeriodKey)
	assert.Equal(t, "2026-09", *bill.PeriodKey)
	assert.Equal(t, "2026-10-15", bill.DueDate.In(bangkok).Format("2006-01-02"))
	assert.Equal(t, model.BillStatusUnpaid, bill.Status)
	assert.Len(t, bill.Items, len(billing.WasteTypes))

	// the October record stays unbilled
	var unbilled int64
	env.DB.Model(&model.WasteRecord{}).Where("address_id = ? AND bill_id IS NULL", billed.ID).Count(&unbilled)
	assert.Equal(t, int64(1), unbilled)

	sent := env.Pusher.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "17.00")
	assert.Contains(t, sent[0].Text, "15/10/2026")

	idleBills, err := env.Billing.ListBills(repository.BillFilter{AddressID: &idle.ID})
	require.NoError(t, err)
	assert.Zero(t, idleBills.Total)
}

func TestBillingService_GenerateMonthly_Idempotent(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressEstablishment)
	env.record(t, addr.ID, billing.WasteHazardous, "1.25", bkk(2026, 9, 12, 14, 0))

	first, err := env.Billing.GenerateMonthly(ctx, 2026, time.September, &env.Admin)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	// late record for the same period does not produce a second monthly bill
	env.record(t, addr.ID, billing.WasteGeneral, "2", bkk(2026, 9, 28, 8, 0))
	second, err := env.Billing.GenerateMonthly(ctx, 2026, time.September, &env.Admin)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 1, second.Skipped)

	var count int64
	env.DB.Model(&model.Bill{}).Where("address_id = ?", addr.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, []string{websocket.EventBillingRunFinished, websocket.EventBillingRunFinished}, env.Events.Events())
	logs, err := env.Audit.List(repository.AuditFilter{ActionType: model.AuditBillingRun})
	require.NoError(t, err)
	assert.Len(t, logs.Items, 2)
}

func TestBillingService_GenerateMonthly_Cancelled(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	env.record(t, addr.ID, billing.WasteGeneral, "1", bkk(2026, 9, 1, 9, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := env.Billing.GenerateMonthly(ctx, 2026, time.September, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Created)
}

func TestBillingService_CreateManualBill(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressEstablishment)
	env.record(t, addr.ID, billing.WasteOrganic, "2", nowUTC().Add(-48*time.Hour))

	bill, err := env.Billing.CreateManualBill(ctx, env.Admin, addr.ID, billing.Weights{
		billing.WasteGeneral:    dec("5"),
		billing.WasteRecyclable: dec("1.5"),
	}, time.Time{})
	require.NoError(t, err)

	// 5*4 + 2*2 - 1.5*1
	assert.Equal(t, "22.50", bill.AmountDue.StringFixed(2))
	assert.Equal(t, "8.50", bill.TotalWeightKg.StringFixed(2))
	assert.Equal(t, model.BillKindManual, bill.Kind)
	assert.Nil(t, bill.PeriodKey)
	require.NotNil(t, bill.CreatedBy)
	assert.Equal(t, env.Admin.ID, *bill.CreatedBy)

	var stamped int64
	env.DB.Model(&model.WasteRecord{}).Where("bill_id = ?", bill.ID).Count(&stamped)
	assert.Equal(t, int64(3), stamped)

	// nothing left to bill, so the next bill is zero
	again, err := env.Billing.GenerateForAddress(ctx, &env.Admin, addr.ID, GenerateOptions{Kind: model.BillKindManual})
	require.NoError(t, err)
	assert.True(t, again.AmountDue.IsZero())
	assert.True(t, again.TotalWeightKg.IsZero())
	assert.Len(t, again.Items, len(billing.WasteTypes))

	logs, err := env.Audit.List(repository.AuditFilter{ActionType: model.AuditBillCreated})
	require.NoError(t, err)
	assert.Len(t, logs.Items, 1)
}

func TestBillingService_CreateManualBill_Errors(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", false)
	pending := env.address(t, owner.ID, false, model.AddressHousehold)

	tests := []struct {
		name      string
		addressID uint
		weights   billing.Weights
		at        time.Time
		wantErr   error
	}{
		{name: "Negative weight", addressID: pending.ID, weights: billing.Weights{billing.WasteGeneral: dec("-1")}, wantErr: ErrNegativeWeight},
		{name: "Unknown waste type", addressID: pending.ID, weights: billing.Weights{"metal": dec("1")}, wantErr: ErrInvalidWasteType},
		{name: "Future date", addressID: pending.ID, weights: billing.Weights{billing.WasteGeneral: dec("1")}, at: time.Now().Add(48 * time.Hour), wantErr: ErrFutureRecordedDate},
		{name: "Unverified address", addressID: pending.ID, weights: billing.Weights{billing.WasteGeneral: dec("1")}, wantErr: ErrAddressNotVerified},
		{name: "Missing address", addressID: 999, weights: billing.Weights{billing.WasteGeneral: dec("1")}, wantErr: ErrAddressNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Billing.CreateManualBill(ctx, env.Admin, tt.addressID, tt.weights, tt.at)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int64
	env.DB.Model(&model.Bill{}).Count(&count)
	assert.Zero(t, count)
}

func TestBillingService_NegativeTotalIsCredit(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	env.record(t, addr.ID, billing.WasteRecyclable, "5", nowUTC())

	bill, err := env.Billing.GenerateForAddress(context.Background(), nil, addr.ID, GenerateOptions{Kind: model.BillKindManual})
	require.NoError(t, err)
	assert.Equal(t, "-5.00", bill.AmountDue.StringFixed(2))

	_, err = env.Billing.GenerateForAddress(context.Background(), nil, addr.ID, GenerateOptions{Kind: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidBillKind)
}

func TestBillingService_UserBillsAndStatus(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.resident(t, "U1", true)
	stranger := env.resident(t, "U2", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	bill := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")
	env.bill(t, addr.ID, model.BillStatusPaid, "12.00")

	mine, err := env.Billing.GetUserBill(owner.ID, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.ID, mine.ID)
	_, err = env.Billing.GetUserBill(stranger.ID, bill.ID)
	assert.ErrorIs(t, err, ErrBillNotFound)

	unpaid := model.BillStatusUnpaid
	page, err := env.Billing.ListUserBills(owner.ID, &unpaid, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	page, err = env.Billing.ListUserBills(stranger.ID, nil, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	updated, err := env.Billing.UpdateBillStatus(env.Admin, bill.ID, model.BillStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, updated.Status)
	assert.NotNil(t, updated.PaidAt)

	_, err = env.Billing.UpdateBillStatus(env.Admin, bill.ID, model.BillStatus(9))
	assert.ErrorIs(t, err, ErrInvalidBillStatus)
	_, err = env.Billing.UpdateBillStatus(env.Admin, 999, model.BillStatusPaid)
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestBillingService_AmountDueMatchesItems(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	_, err := env.Prices.UpdatePrices(ctx, env.Admin, []PriceInput{
		{AddressType: model.AddressHousehold, WasteType: billing.WasteGeneral, PricePerKg: dec("0.15")},
		{AddressType: model.AddressHousehold, WasteType: billing.WasteOrganic, PricePerKg: dec("0.15")},
	})
	require.NoError(t, err)

	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	env.record(t, addr.ID, billing.WasteGeneral, "0.15", nowUTC())
	env.record(t, addr.ID, billing.WasteOrganic, "0.15", nowUTC())

	scan, err := env.Records.ScanBarcode(ctx, addr.Barcode)
	require.NoError(t, err)

	created, err := env.Billing.GenerateForAddress(ctx, nil, addr.ID, GenerateOptions{Kind: model.BillKindManual})
	require.NoError(t, err)
	bill, err := env.Billing.GetBill(created.ID)
	require.NoError(t, err)

	// 0.0225 per line rounds to 0.02 before summing
	sum := dec("0")
	for _, item := range bill.Items {
		sum = sum.Add(item.Amount)
	}
	assert.Equal(t, "0.04", bill.AmountDue.StringFixed(2))
	assert.True(t, sum.Equal(bill.AmountDue), "items=%s amount_due=%s", sum, bill.AmountDue)
	assert.True(t, scan.Estimate.Equal(bill.AmountDue), "estimate=%s amount_due=%s", scan.Estimate, bill.AmountDue)
}

func TestBillingService_GenerateMonthly_LogsAddressFailures(t *testing.T) {
	var buf bytes.Buffer
	logger.Initialize(logger.Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { logger.Initialize(logger.Config{Level: "info", Format: "console"}) })

	env := setupServiceTest(t)
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	require.NoError(t, env.DB.Migrator().DropTable(&model.WasteRecord{}))

	summary, err := env.Billing.GenerateMonthly(context.Background(), 2026, time.September, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Created)

	out := buf.String()
	assert.Contains(t, out, "Failed to load unbilled weights")
	assert.Contains(t, out, fmt.Sprintf(`"address_id":%d`, addr.ID))
	assert.Contains(t, out, `"period":"2026-09"`)
	assert.Equal(t, 1, strings.Count(out, "Monthly billing run finished"))
}
