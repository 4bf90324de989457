package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column order of the resident sheet. The first row is a header.
const (
	colLineUserID = iota
	colName
	colIDCardNo
	colPhoneNo
	colHouseNo
	colVillage
	colSubDistrict
	colDistrict
	colProvince
	colPostalCode
	colAddressType
	colVerified
	columnCount
)

// rowError is one rejected sheet row, numbered as in the spreadsheet
type rowError struct {
	Row    int
	Reason string
}

func (e rowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func readResidentsFromXLSX(filePath string) ([]model.User, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}
	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	residents, rejected := parseResidentRows(rows)
	for _, e := range rejected {
		fmt.Printf("  skipped %s\n", e.Error())
	}
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Data rows: %d\n", max(len(rows)-1, 0))
	fmt.Printf("  Residents: %d\n", len(residents))
	fmt.Printf("  Skipped rows: %d\n", len(rejected))

	if len(residents) == 0 {
		return nil, errors.New("no valid resident rows found")
	}
	return residents, nil
}

// parseResidentRows groups address rows by LINE user id. Rows that fail
// validation are reported and left out; the first row of a resident
// supplies the profile.
func parseResidentRows(rows [][]string) ([]model.User, []rowError) {
	var (
		residents []model.User
		rejected  []rowError
		index     = make(map[string]int)
	)

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNo := i + 1
		if isBlankRow(row) {
			continue
		}
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		lineID := cell(colLineUserID)
		name := cell(colName)
		idCard := strings.ReplaceAll(cell(colIDCardNo), "-", "")
		phone := util.NormalizePhone(cell(colPhoneNo))
		verified := parseYes(cell(colVerified))

		switch {
		case lineID == "" || name == "":
			rejected = append(rejected, rowError{rowNo, "LINE user id and name are required"})
			continue
		case idCard != "" && !util.IsValidThaiIDCard(idCard):
			rejected = append(rejected, rowError{rowNo, "invalid ID card number"})
			continue
		case phone != "" && !util.IsValidThaiPhone(phone):
			rejected = append(rejected, rowError{rowNo, "invalid phone number"})
			continue
		}

		addrType := model.AddressType(strings.ToLower(cell(colAddressType)))
		if addrType == "" {
			addrType = model.AddressHousehold
		}
		if !addrType.Valid() {
			rejected = append(rejected, rowError{rowNo, fmt.Sprintf("invalid address type %q", addrType)})
			continue
		}
		address := model.Address{
			HouseNo:     cell(colHouseNo),
			Village:     cell(colVillage),
			SubDistrict: cell(colSubDistrict),
			District:    cell(colDistrict),
			Province:    cell(colProvince),
			PostalCode:  cell(colPostalCode),
			AddressType: addrType,
			Verified:    verified,
		}
		if address.HouseNo == "" || address.SubDistrict == "" || address.District == "" || address.Province == "" {
			rejected = append(rejected, rowError{rowNo, "house no, sub-district, district and province are required"})
			continue
		}

		pos, seen := index[lineID]
		if !seen {
			user := model.User{
				LineUserID: lineID,
				Name:       name,
				IDCardNo:   idCard,
				PhoneNo:    phone,
			}
			if verified {
				user.VerifyStatus = model.VerifyStatusVerified
			}
			residents = append(residents, user)
			pos = len(residents) - 1
			index[lineID] = pos
		}
		residents[pos].Addresses = append(residents[pos].Addresses, address)
	}

	return residents, rejected
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseYes(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "ใช่":
		return true
	}
	return false
}

type residentImporter struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
}

// Import creates each resident with their addresses in one transaction per
// resident. Residents whose LINE id already exists are skipped.
func (imp *residentImporter) Import(residents []model.User) (created, skipped int, err error) {
	now := time.Now().UTC()

	for _, r := range residents {
		r := r
		addresses := r.Addresses
		r.Addresses = nil

		if _, err := imp.userRepo.FindByLineUserID(r.LineUserID); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, skipped, fmt.Errorf("lookup %s: %w", r.LineUserID, err)
		}

		if r.VerifyStatus == model.VerifyStatusVerified {
			r.VerifiedAt = &now
		}

		err := imp.db.Transaction(func(tx *gorm.DB) error {
			if err := imp.userRepo.WithTx(tx).Create(&r); err != nil {
				return err
			}
			for i := range addresses {
				addresses[i].UserID = r.ID
				if addresses[i].Verified {
					addresses[i].VerifiedAt = &now
				}
				if err := imp.addressRepo.WithTx(tx).Create(&addresses[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return created, skipped, fmt.Errorf("import %s: %w", r.LineUserID, err)
		}
		created++
	}
	return created, skipped, nil
}
