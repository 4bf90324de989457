package service

import (
	"fmt"

	"github.com/wastebill/wastebill-backend/internal/app/model"
)

const thaiDate = "02/01/2006"

func registeredMessage(user *model.User) Message {
	return Message{
		Type:    model.NotificationRegistered,
		Title:   "ลงทะเบียนสำเร็จ",
		Content: fmt.Sprintf("คุณ%s ได้ลงทะเบียนเรียบร้อยแล้ว กรุณารอเจ้าหน้าที่ตรวจสอบข้อมูล", user.Name),
	}
}

func userVerifiedMessage() Message {
	return Message{
		Type:    model.NotificationUserVerified,
		Title:   "ยืนยันตัวตนเรียบร้อย",
		Content: "เจ้าหน้าที่ได้ยืนยันตัวตนของท่านแล้ว",
	}
}

func billIssuedMessage(bill *model.Bill) Message {
	period := "ค่าเก็บขยะ"
	if bill.PeriodKey != nil {
		period = "ค่าเก็บขยะรอบ " + *bill.PeriodKey
	}
	return Message{
		Type:  model.NotificationBillIssued,
		Title: "แจ้งบิลค่าเก็บขยะ",
		Content: fmt.Sprintf("%s บิลเลขที่ %d ยอดชำระ %s บาท กำหนดชำระภายใน %s",
			period, bill.ID, bill.AmountDue.StringFixed(2), bill.DueDate.Format(thaiDate)),
		BillID: &bill.ID,
	}
}

func slipApprovedMessage(slip *model.PaymentSlip) Message {
	return Message{
		Type:    model.NotificationSlipApproved,
		Title:   "ชำระเงินสำเร็จ",
		Content: fmt.Sprintf("สลิปการชำระเงินเลขที่ %d ได้รับการอนุมัติแล้ว ขอบคุณที่ชำระค่าบริการ", slip.ID),
		SlipID:  &slip.ID,
	}
}

func slipRejectedMessage(slip *model.PaymentSlip) Message {
	content := fmt.Sprintf("สลิปการชำระเงินเลขที่ %d ไม่ผ่านการตรวจสอบ กรุณาอัปโหลดสลิปใหม่", slip.ID)
	if slip.ReviewNote != "" {
		content += " (" + slip.ReviewNote + ")"
	}
	return Message{
		Type:    model.NotificationSlipRejected,
		Title:   "สลิปไม่ผ่านการตรวจสอบ",
		Content: content,
		SlipID:  &slip.ID,
	}
}

func issueAcknowledgedMessage(issue *model.IssueReport) Message {
	return Message{
		Type:    model.NotificationIssueAcked,
		Title:   "รับเรื่องแล้ว",
		Content: fmt.Sprintf("เจ้าหน้าที่ได้รับเรื่อง \"%s\" แล้ว และจะดำเนินการโดยเร็ว", issue.Title),
		IssueID: &issue.ID,
	}
}

func issueResolvedMessage(issue *model.IssueReport) Message {
	return Message{
		Type:    model.NotificationIssueResolved,
		Title:   "ดำเนินการเรียบร้อย",
		Content: fmt.Sprintf("เรื่อง \"%s\" ได้รับการแก้ไขเรียบร้อยแล้ว", issue.Title),
		IssueID: &issue.ID,
	}
}
