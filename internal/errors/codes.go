package errors

// Error code constants, format CATEGORY_DETAIL.
// The frontend maps these codes to its own messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong username/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or wrong audience
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // logged out
	AuthLineTokenInvalid   = "AUTH_LINE_TOKEN_INVALID"  // LINE rejected the ID token
	AuthNotRegistered      = "AUTH_NOT_REGISTERED"      // LINE account has no resident record
	AuthAlreadyRegistered  = "AUTH_ALREADY_REGISTERED"  // LINE account already registered
	AuthAccountDisabled    = "AUTH_ACCOUNT_DISABLED"    // admin account deactivated

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // no access
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"    // back-office only
	AuthzResidentOnly = "AUTHZ_RESIDENT_ONLY" // resident app only
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"    // not the owner

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"   // bad input
	ValidationInvalidID     = "VALIDATION_INVALID_ID"      // bad path id
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"  // bad format
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"   // out of range
	ValidationInvalidPhone  = "VALIDATION_INVALID_PHONE"   // phone must be 10 digits
	ValidationInvalidIDCard = "VALIDATION_INVALID_ID_CARD" // 13 digits with check digit
	ValidationRequired      = "VALIDATION_REQUIRED"        // missing field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Users (USER_) ====================
	UserNotFound        = "USER_NOT_FOUND"
	UserNotVerified     = "USER_NOT_VERIFIED"     // owner must be verified first
	UserAlreadyVerified = "USER_ALREADY_VERIFIED" // nothing to do
	UserProfileLocked   = "USER_PROFILE_LOCKED"   // name and ID card fixed after verification

	// ==================== Addresses (ADDRESS_) ====================
	AddressNotFound        = "ADDRESS_NOT_FOUND"
	AddressNotVerified     = "ADDRESS_NOT_VERIFIED"     // weighing needs a verified address
	AddressAlreadyVerified = "ADDRESS_ALREADY_VERIFIED" // verified addresses are locked
	AddressInvalidBarcode  = "ADDRESS_INVALID_BARCODE"

	// ==================== Prices / waste (PRICE_, WASTE_) ====================
	PriceInvalidType  = "PRICE_INVALID_TYPE" // unknown address or waste type
	WasteInvalidType  = "WASTE_INVALID_TYPE"
	WasteNegative     = "WASTE_NEGATIVE_WEIGHT"
	WasteEmptyRecord  = "WASTE_EMPTY_RECORD" // all weights zero
	WasteInvalidRange = "WASTE_INVALID_DATE_RANGE"

	// ==================== Bills (BILL_) ====================
	BillNotFound       = "BILL_NOT_FOUND"
	BillNotPayable     = "BILL_NOT_PAYABLE"    // paid or under review
	BillAlreadyExists  = "BILL_ALREADY_EXISTS" // period already billed
	BillInvalidStatus  = "BILL_INVALID_STATUS"
	BillInvalidPeriod  = "BILL_INVALID_PERIOD"
	BillAwaitingReview = "BILL_AWAITING_REVIEW" // a pending slip holds the bill

	// ==================== Payment slips (SLIP_) ====================
	SlipNotFound        = "SLIP_NOT_FOUND"
	SlipAlreadyReviewed = "SLIP_ALREADY_REVIEWED" // approved/rejected are final
	SlipInvalidDecision = "SLIP_INVALID_DECISION"
	SlipNoBills         = "SLIP_NO_BILLS"
	SlipBillNotOwned    = "SLIP_BILL_NOT_OWNED"
	SlipBillNotPayable  = "SLIP_BILL_NOT_PAYABLE"
	SlipImageRequired   = "SLIP_IMAGE_REQUIRED"
	SlipBillsChanged    = "SLIP_BILLS_CHANGED"

	// ==================== Issues / notifications ====================
	IssueNotFound        = "ISSUE_NOT_FOUND"
	IssueInvalidState    = "ISSUE_INVALID_STATE"
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Admin accounts (ADMIN_) ====================
	AdminNotFound          = "ADMIN_NOT_FOUND"
	AdminUsernameExists    = "ADMIN_USERNAME_EXISTS"
	AdminInvalidRole       = "ADMIN_INVALID_ROLE"
	AdminCannotDisableSelf = "ADMIN_CANNOT_DISABLE_SELF"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Reports (REPORT_) ====================
	ReportFailed = "REPORT_FAILED"

	// ==================== Rate limit (RATE_) ====================
	RateLimited = "RATE_LIMITED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
