package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/internal/db"
	"gorm.io/gorm"
)

func setupRepoTest(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createResident(t *testing.T, testDB *gorm.DB, lineID string, status model.VerifyStatus) *model.User {
	user := &model.User{LineUserID: lineID, Name: "สมชาย ใจดี", PhoneNo: "0812345678", VerifyStatus: status}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createAddress(t *testing.T, testDB *gorm.DB, userID uint, verified bool, addrType model.AddressType) *model.Address {
	addr := &model.Address{
		UserID:      userID,
		HouseNo:     "99/1",
		SubDistrict: "ในเมือง",
		District:    "เมือง",
		Province:    "ขอนแก่น",
		AddressType: addrType,
		Verified:    verified,
	}
	require.NoError(t, testDB.Create(addr).Error)
	return addr
}

func createRecord(t *testing.T, testDB *gorm.DB, addressID uint, wasteType billing.WasteType, kg string, at time.Time) *model.WasteRecord {
	rec := &model.WasteRecord{
		AddressID:    addressID,
		WasteType:    wasteType,
		WeightKg:     decimal.RequireFromString(kg),
		RecordedDate: at.UTC(),
	}
	require.NoError(t, testDB.Create(rec).Error)
	return rec
}

func createBill(t *testing.T, testDB *gorm.DB, addressID uint, status model.BillStatus, amount string) *model.Bill {
	bill := &model.Bill{
		AddressID: addressID,
		Kind:      model.BillKindManual,
		AmountDue: decimal.RequireFromString(amount),
		DueDate:   time.Now().Add(14 * 24 * time.Hour),
		Status:    status,
	}
	require.NoError(t, testDB.Create(bill).Error)
	return bill
}
