package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of generated reports
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetBills   = "Bills"
	sheetSummary = "Summary"
	sheetWaste   = "Waste"
)

var billStatusLabels = map[model.BillStatus]string{
	model.BillStatusUnpaid:  "ค้างชำระ",
	model.BillStatusPaid:    "ชำระแล้ว",
	model.BillStatusPending: "รอตรวจสอบ",
}

var wasteTypeLabels = map[billing.WasteType]string{
	billing.WasteGeneral:    "ขยะทั่วไป (กก.)",
	billing.WasteHazardous:  "ขยะอันตราย (กก.)",
	billing.WasteRecyclable: "ขยะรีไซเคิล (กก.)",
	billing.WasteOrganic:    "ขยะอินทรีย์ (กก.)",
}

type ReportService interface {
	FinanceReport(actor Actor, from, to time.Time) ([]byte, error)
	WasteReport(actor Actor, from, to time.Time) ([]byte, error)
}

type reportService struct {
	billRepo    repository.BillRepository
	recordRepo  repository.WasteRecordRepository
	addressRepo repository.AddressRepository
	audit       AuditService
	loc         *time.Location
}

func NewReportService(
	billRepo repository.BillRepository,
	recordRepo repository.WasteRecordRepository,
	addressRepo repository.AddressRepository,
	audit AuditService,
	loc *time.Location,
) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		billRepo:    billRepo,
		recordRepo:  recordRepo,
		addressRepo: addressRepo,
		audit:       audit,
		loc:         loc,
	}
}

// FinanceReport lists bills created in [from, to) with a summary sheet
func (s *reportService) FinanceReport(actor Actor, from, to time.Time) ([]byte, error) {
	bills, err := s.billRepo.FindAll(repository.BillFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetBills); err != nil {
		return nil, err
	}
	header := []interface{}{"เลขที่บิล", "รหัสบ้าน", "บ้านเลขที่", "เจ้าของ", "ประเภทบิล", "รอบบิล",
		"น้ำหนักรวม (กก.)", "ยอดเงิน (บาท)", "สถานะ", "ครบกำหนด", "วันที่ชำระ"}
	if err := writeHeader(f, sheetBills, header); err != nil {
		return nil, err
	}

	billed, paid, pending, outstanding := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for i, b := range bills {
		var barcode, houseNo, owner, period, paidAt string
		if b.Address != nil {
			barcode, houseNo = b.Address.Barcode, b.Address.HouseNo
			if b.Address.User != nil {
				owner = b.Address.User.Name
			}
		}
		if b.PeriodKey != nil {
			period = *b.PeriodKey
		}
		if b.PaidAt != nil {
			paidAt = b.PaidAt.In(s.loc).Format("2006-01-02 15:04")
		}

		row := []interface{}{b.ID, barcode, houseNo, owner, string(b.Kind), period,
			b.TotalWeightKg.InexactFloat64(), b.AmountDue.InexactFloat64(), billStatusLabels[b.Status],
			b.DueDate.In(s.loc).Format("2006-01-02"), paidAt}
		if err := writeRow(f, sheetBills, i+2, row); err != nil {
			return nil, err
		}

		billed = billed.Add(b.AmountDue)
		switch b.Status {
		case model.BillStatusPaid:
			paid = paid.Add(b.AmountDue)
		case model.BillStatusPending:
			pending = pending.Add(b.AmountDue)
		default:
			outstanding = outstanding.Add(b.AmountDue)
		}
	}
	_ = f.SetColWidth(sheetBills, "A", "K", 16)

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"ช่วงเวลา", fmt.Sprintf("%s ถึง %s", from.In(s.loc).Format("2006-01-02"), to.In(s.loc).Format("2006-01-02"))},
		{"จำนวนบิล", len(bills)},
		{"ยอดเรียกเก็บทั้งหมด", billed.InexactFloat64()},
		{"ชำระแล้ว", paid.InexactFloat64()},
		{"รอตรวจสอบ", pending.InexactFloat64()},
		{"ค้างชำระ", outstanding.InexactFloat64()},
	}
	for i, row := range summary {
		if err := writeRow(f, sheetSummary, i+1, row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheetSummary, "A", "B", 24)

	s.audit.Record(actor, model.AuditReportExported, "report", 0, map[string]interface{}{
		"report": "finance",
		"from":   from.Format(time.RFC3339),
		"to":     to.Format(time.RFC3339),
		"bills":  len(bills),
	})
	logger.Info("Finance report generated", map[string]interface{}{
		"admin_id": actor.ID,
		"bills":    len(bills),
	})
	return toBytes(f)
}

// WasteReport totals recorded weight per address and waste type in [from, to)
func (s *reportService) WasteReport(actor Actor, from, to time.Time) ([]byte, error) {
	totals, err := s.recordRepo.TotalsByAddress(from, to)
	if err != nil {
		return nil, err
	}

	byAddress := make(map[uint]billing.Weights)
	ids := make([]uint, 0)
	for _, t := range totals {
		if _, ok := byAddress[t.AddressID]; !ok {
			byAddress[t.AddressID] = billing.Weights{}
			ids = append(ids, t.AddressID)
		}
		byAddress[t.AddressID][t.WasteType] = t.Total
	}
	addresses, err := s.addressRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetWaste); err != nil {
		return nil, err
	}
	header := []interface{}{"รหัสบ้าน", "บ้านเลขที่", "หมู่บ้าน", "ตำบล", "เจ้าของ", "ประเภทที่อยู่"}
	for _, t := range billing.WasteTypes {
		header = append(header, wasteTypeLabels[t])
	}
	header = append(header, "รวม (กก.)")
	if err := writeHeader(f, sheetWaste, header); err != nil {
		return nil, err
	}

	grand := billing.Weights{}
	rowNum := 2
	for _, a := range addresses {
		w := byAddress[a.ID]
		owner := ""
		if a.User != nil {
			owner = a.User.Name
		}
		row := []interface{}{a.Barcode, a.HouseNo, a.Village, a.SubDistrict, owner, string(a.AddressType)}
		for _, t := range billing.WasteTypes {
			row = append(row, w[t].InexactFloat64())
		}
		row = append(row, w.TotalKg().InexactFloat64())
		if err := writeRow(f, sheetWaste, rowNum, row); err != nil {
			return nil, err
		}
		grand = grand.Add(w)
		rowNum++
	}

	footer := []interface{}{"รวมทั้งหมด", "", "", "", "", ""}
	for _, t := range billing.WasteTypes {
		footer = append(footer, grand[t].InexactFloat64())
	}
	footer = append(footer, grand.TotalKg().InexactFloat64())
	if err := writeRow(f, sheetWaste, rowNum, footer); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheetWaste, "A", "K", 16)

	s.audit.Record(actor, model.AuditReportExported, "report", 0, map[string]interface{}{
		"report":    "waste",
		"from":      from.Format(time.RFC3339),
		"to":        to.Format(time.RFC3339),
		"addresses": len(addresses),
	})
	logger.Info("Waste report generated", map[string]interface{}{
		"admin_id":  actor.ID,
		"addresses": len(addresses),
	})
	return toBytes(f)
}

func writeHeader(f *excelize.File, sheet string, header []interface{}) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write xlsx", err)
		return nil, err
	}
	return buf.Bytes(), nil
}
