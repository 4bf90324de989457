package errors

// Thai messages shown to residents and staff
const (
	MsgLoginRequired      = "กรุณาเข้าสู่ระบบ"
	MsgForbidden          = "ไม่มีสิทธิ์เข้าถึง"
	MsgServerError        = "เกิดข้อผิดพลาดของระบบ กรุณาลองใหม่อีกครั้ง"
	MsgInvalidInput       = "ข้อมูลไม่ถูกต้อง"
	MsgInvalidID          = "รหัสไม่ถูกต้อง"
	MsgInvalidPhone       = "เบอร์โทรศัพท์ต้องเป็นตัวเลข 10 หลัก"
	MsgInvalidIDCard      = "เลขบัตรประชาชนไม่ถูกต้อง"
	MsgRequired           = "กรุณากรอกข้อมูลให้ครบถ้วน"
	MsgNotFound           = "ไม่พบข้อมูลที่ต้องการ"
	MsgAlreadyExists      = "ข้อมูลนี้มีอยู่แล้ว"
	MsgReferenced         = "ไม่สามารถลบได้ เนื่องจากมีข้อมูลที่เกี่ยวข้อง"
	MsgExternalAPI        = "ไม่สามารถเชื่อมต่อบริการภายนอกได้ กรุณาลองใหม่ภายหลัง"
	MsgRateLimited        = "มีการร้องขอมากเกินไป กรุณารอสักครู่"
	MsgTokenExpired       = "เซสชันหมดอายุ กรุณาเข้าสู่ระบบใหม่"
	MsgTokenInvalid       = "โทเคนไม่ถูกต้อง"
	MsgTokenRevoked       = "ออกจากระบบแล้ว กรุณาเข้าสู่ระบบใหม่"
	MsgInvalidCredentials = "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง"
	MsgAccountDisabled    = "บัญชีนี้ถูกระงับการใช้งาน"
	MsgLineTokenInvalid   = "ไม่สามารถยืนยันตัวตนกับ LINE ได้"
	MsgNotRegistered      = "ยังไม่ได้ลงทะเบียน กรุณาลงทะเบียนก่อน"
	MsgAlreadyRegistered  = "บัญชี LINE นี้ลงทะเบียนแล้ว"
	MsgAdminOnly          = "สำหรับเจ้าหน้าที่เท่านั้น"
	MsgResidentOnly       = "สำหรับผู้ใช้งานทั่วไปเท่านั้น"

	MsgUserNotFound        = "ไม่พบผู้ใช้งาน"
	MsgUserNotVerified     = "ผู้ใช้งานยังไม่ได้รับการยืนยันตัวตน ไม่สามารถยืนยันที่อยู่ได้"
	MsgUserAlreadyVerified = "ผู้ใช้งานได้รับการยืนยันแล้ว"
	MsgProfileLocked       = "ยืนยันตัวตนแล้ว ไม่สามารถแก้ไขชื่อหรือเลขบัตรประชาชนได้"
	MsgAddressNotFound     = "ไม่พบที่อยู่"
	MsgAddressNotVerified  = "ที่อยู่ยังไม่ได้รับการยืนยัน"
	MsgAddressLocked       = "ที่อยู่ได้รับการยืนยันแล้ว ไม่สามารถแก้ไขหรือลบได้"
	MsgInvalidBarcode      = "บาร์โค้ดไม่ถูกต้อง"
	MsgInvalidWasteType    = "ประเภทขยะไม่ถูกต้อง"
	MsgInvalidAddressType  = "ประเภทที่อยู่ไม่ถูกต้อง"
	MsgNegativeWeight      = "น้ำหนักต้องไม่ติดลบ"
	MsgEmptyWeights        = "กรุณากรอกน้ำหนักอย่างน้อยหนึ่งประเภท"
	MsgInvalidDateRange    = "ช่วงวันที่ไม่ถูกต้อง"
	MsgBillNotFound        = "ไม่พบบิล"
	MsgBillAlreadyExists   = "มีบิลของรอบนี้แล้ว"
	MsgBillInvalidStatus   = "สถานะบิลไม่ถูกต้อง"
	MsgBillInvalidPeriod   = "รอบบิลไม่ถูกต้อง"
	MsgBillAwaitingReview  = "บิลนี้มีสลิปรอตรวจสอบ กรุณาตรวจสลิปก่อนเปลี่ยนสถานะ"
	MsgSlipNotFound        = "ไม่พบสลิปการชำระเงิน"
	MsgSlipReviewed        = "สลิปนี้ได้รับการตรวจสอบแล้ว"
	MsgSlipDecision        = "ผลการตรวจสอบต้องเป็น approved หรือ rejected"
	MsgSlipNoBills         = "กรุณาเลือกบิลที่ต้องการชำระ"
	MsgSlipBillNotOwned    = "บิลที่เลือกไม่ใช่ของท่าน"
	MsgSlipBillNotPayable  = "บิลที่เลือกชำระแล้วหรืออยู่ระหว่างตรวจสอบ"
	MsgSlipImageRequired   = "กรุณาแนบรูปสลิป"
	MsgSlipBillsChanged    = "สถานะบิลในสลิปนี้ถูกเปลี่ยนแล้ว ไม่สามารถตรวจสอบได้"
	MsgIssueNotFound       = "ไม่พบเรื่องร้องเรียน"
	MsgIssueInvalidState   = "ไม่สามารถเปลี่ยนสถานะเรื่องร้องเรียนได้"
	MsgNotificationMissing = "ไม่พบการแจ้งเตือน"
	MsgAdminNotFound       = "ไม่พบบัญชีเจ้าหน้าที่"
	MsgAdminExists         = "ชื่อผู้ใช้นี้ถูกใช้แล้ว"
	MsgAdminInvalidRole    = "บทบาทไม่ถูกต้อง"
	MsgAdminDisableSelf    = "ไม่สามารถระงับบัญชีของตนเองได้"
	MsgUploadInvalidType   = "รองรับเฉพาะไฟล์ JPG, PNG หรือ WEBP"
	MsgUploadTooLarge      = "ไฟล์มีขนาดใหญ่เกินกำหนด"
	MsgUploadFailed        = "อัปโหลดไฟล์ไม่สำเร็จ"
	MsgReportFailed        = "สร้างรายงานไม่สำเร็จ"
)
