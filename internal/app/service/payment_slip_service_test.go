package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/websocket"
)

func pngUpload(billIDs ...uint) SlipUpload {
	body := "fake-png-bytes"
	return SlipUpload{
		File:        strings.NewReader(body),
		Size:        int64(len(body)),
		ContentType: "image/png",
		Note:        " โอนผ่านพร้อมเพย์ ",
		BillIDs:     billIDs,
	}
}

func billStatus(t *testing.T, env *testEnv, id uint) model.BillStatus {
	bill, err := env.BillRepo.FindByID(id)
	require.NoError(t, err)
	return bill.Status
}

func TestPaymentSlipService_Upload(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	b1 := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")
	b2 := env.bill(t, addr.ID, model.BillStatusUnpaid, "12.50")

	slip, err := env.Slips.Upload(ctx, owner.ID, pngUpload(b2.ID, b1.ID, b1.ID))
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusPending, slip.Status)
	assert.Equal(t, "โอนผ่านพร้อมเพย์", slip.Note)
	assert.True(t, strings.HasPrefix(slip.ImagePath, "slips/"))
	assert.True(t, strings.HasSuffix(slip.ImagePath, ".png"))
	assert.Equal(t, "/uploads/"+slip.ImagePath, slip.ImageURL)
	assert.Len(t, slip.Bills, 2)

	_, err = os.Stat(filepath.Join(env.Storage.Root(), filepath.FromSlash(slip.ImagePath)))
	assert.NoError(t, err)

	assert.Equal(t, model.BillStatusPending, billStatus(t, env, b1.ID))
	assert.Equal(t, model.BillStatusPending, billStatus(t, env, b2.ID))
	assert.Equal(t, []string{websocket.EventSlipUploaded}, env.Events.Events())

	// a bill under review cannot be paid twice
	_, err = env.Slips.Upload(ctx, owner.ID, pngUpload(b1.ID))
	assert.ErrorIs(t, err, ErrSlipBillNotPayable)

	mine, err := env.Slips.ListMySlips(owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)
}

func TestPaymentSlipService_Upload_Rejections(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", true)
	stranger := env.resident(t, "U2", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	unpaid := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")
	paid := env.bill(t, addr.ID, model.BillStatusPaid, "10.00")
	zero := env.bill(t, addr.ID, model.BillStatusUnpaid, "0.00")
	credit := env.bill(t, addr.ID, model.BillStatusUnpaid, "-5.00")

	large := pngUpload(unpaid.ID)
	large.Size = 4096
	pdf := pngUpload(unpaid.ID)
	pdf.ContentType = "application/pdf"

	tests := []struct {
		name    string
		userID  uint
		upload  SlipUpload
		wantErr error
	}{
		{name: "No bills", userID: owner.ID, upload: pngUpload(), wantErr: ErrNoBillsSelected},
		{name: "Too large", userID: owner.ID, upload: large, wantErr: ErrSlipTooLarge},
		{name: "Unsupported type", userID: owner.ID, upload: pdf, wantErr: ErrSlipUnsupportedType},
		{name: "Unknown bill", userID: owner.ID, upload: pngUpload(unpaid.ID, 999), wantErr: ErrBillNotFound},
		{name: "Another resident's bill", userID: stranger.ID, upload: pngUpload(unpaid.ID), wantErr: ErrBillNotFound},
		{name: "Already paid", userID: owner.ID, upload: pngUpload(paid.ID), wantErr: ErrSlipBillNotPayable},
		{name: "Nothing due", userID: owner.ID, upload: pngUpload(zero.ID), wantErr: ErrSlipBillNotPayable},
		{name: "Credit bill", userID: owner.ID, upload: pngUpload(unpaid.ID, credit.ID), wantErr: ErrSlipBillNotPayable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slip, err := env.Slips.Upload(ctx, tt.userID, tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, slip)
		})
	}

	assert.Equal(t, model.BillStatusUnpaid, billStatus(t, env, unpaid.ID))
	entries, err := os.ReadDir(env.Storage.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPaymentSlipService_ReviewApprove(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	bill := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")

	slip, err := env.Slips.Upload(ctx, owner.ID, pngUpload(bill.ID))
	require.NoError(t, err)

	_, err = env.Slips.Review(ctx, env.Admin, slip.ID, model.SlipStatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidSlipDecision)

	reviewed, err := env.Slips.Review(ctx, env.Admin, slip.ID, model.SlipStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, env.Admin.ID, *reviewed.ReviewedBy)

	paid, err := env.BillRepo.FindByID(bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	// approved is final
	_, err = env.Slips.Review(ctx, env.Admin, slip.ID, model.SlipStatusRejected, "")
	assert.ErrorIs(t, err, ErrSlipAlreadyReviewed)
	assert.Equal(t, model.BillStatusPaid, billStatus(t, env, bill.ID))

	_, err = env.Slips.Review(ctx, env.Admin, 999, model.SlipStatusApproved, "")
	assert.ErrorIs(t, err, ErrSlipNotFound)

	sent := env.Pusher.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "ชำระเงินสำเร็จ")

	logs, err := env.Audit.List(repository.AuditFilter{ActionType: model.AuditSlipApproved})
	require.NoError(t, err)
	assert.Len(t, logs.Items, 1)
}

func TestPaymentSlipService_ReviewReject(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	bill := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")

	slip, err := env.Slips.Upload(ctx, owner.ID, pngUpload(bill.ID))
	require.NoError(t, err)

	reviewed, err := env.Slips.Review(ctx, env.Admin, slip.ID, model.SlipStatusRejected, "ยอดเงินไม่ตรง")
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusRejected, reviewed.Status)
	assert.Equal(t, "ยอดเงินไม่ตรง", reviewed.ReviewNote)
	assert.Equal(t, model.BillStatusUnpaid, billStatus(t, env, bill.ID))

	sent := env.Pusher.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "ยอดเงินไม่ตรง")

	// the resident may try again with a new slip
	_, err = env.Slips.Upload(ctx, owner.ID, pngUpload(bill.ID))
	require.NoError(t, err)

	pending, err := env.Slips.ListSlips(repository.PaymentSlipFilter{Status: model.SlipStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Total)
}

func TestPaymentSlipService_OverrideBlockedWhileUnderReview(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	bill := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")

	first, err := env.Slips.Upload(ctx, owner.ID, pngUpload(bill.ID))
	require.NoError(t, err)

	for _, status := range []model.BillStatus{model.BillStatusUnpaid, model.BillStatusPaid} {
		_, err = env.Billing.UpdateBillStatus(env.Admin, bill.ID, status)
		assert.ErrorIs(t, err, ErrBillAwaitingReview)
	}
	assert.Equal(t, model.BillStatusPending, billStatus(t, env, bill.ID))

	// a second slip cannot claim the bill either
	_, err = env.Slips.Upload(ctx, owner.ID, pngUpload(bill.ID))
	assert.ErrorIs(t, err, ErrSlipBillNotPayable)

	_, err = env.Slips.Review(ctx, env.Admin, first.ID, model.SlipStatusRejected, "")
	require.NoError(t, err)

	// once the slip is decided the override works again
	updated, err := env.Billing.UpdateBillStatus(env.Admin, bill.ID, model.BillStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, updated.Status)
}

func TestPaymentSlipService_ReviewRollsBackWhenBillsChanged(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.resident(t, "U1", true)
	addr := env.address(t, owner.ID, true, model.AddressHousehold)
	bill := env.bill(t, addr.ID, model.BillStatusUnpaid, "40.00")
	other := env.bill(t, addr.ID, model.BillStatusUnpaid, "15.00")

	slip, err := env.Slips.Upload(ctx, owner.ID, pngUpload(bill.ID, other.ID))
	require.NoError(t, err)

	// one linked bill left review outside the slip workflow
	require.NoError(t, env.DB.Model(&model.Bill{}).Where("id = ?", other.ID).
		Update("status", model.BillStatusUnpaid).Error)

	for _, decision := range []model.SlipStatus{model.SlipStatusApproved, model.SlipStatusRejected} {
		_, err = env.Slips.Review(ctx, env.Admin, slip.ID, decision, "")
		assert.ErrorIs(t, err, ErrSlipBillsChanged)
	}

	reloaded, err := env.Slips.GetSlip(slip.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.ReviewedBy)
	assert.Equal(t, model.BillStatusPending, billStatus(t, env, bill.ID))
	assert.Equal(t, model.BillStatusUnpaid, billStatus(t, env, other.ID))
	assert.Empty(t, env.Pusher.Sent())
}
