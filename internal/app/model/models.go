package model

// All returns every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Address{},
		&AdminAccount{},
		&WastePrice{},
		&Bill{},
		&BillItem{},
		&WasteRecord{},
		&PaymentSlip{},
		&IssueReport{},
		&Notification{},
		&AuditLog{},
	}
}
