package errors

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL server error numbers we translate
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlColumnCannotNull = 1048
)

// ErrorInfo is a code plus a user facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a repository error into a safe code and Thai message.
// context names the entity involved, e.g. "user", "address", "bill".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: MsgServerError}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: notFoundCode(context), Message: notFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err.Error())
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return parseDuplicateKeyError(myErr.Message)
		case mysqlRowIsReferenced:
			return ErrorInfo{Code: ResourceConflict, Message: MsgReferenced}
		case mysqlNoReferencedRow:
			return parseMissingReference(myErr.Message)
		case mysqlColumnCannotNull:
			return ErrorInfo{Code: ValidationRequired, Message: MsgRequired}
		}
		return ErrorInfo{Code: InternalDatabaseError, Message: MsgServerError}
	}

	errLower := strings.ToLower(err.Error())

	// sqlite and wrapped driver errors only expose text
	switch {
	case strings.Contains(errLower, "duplicate entry") || strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower)
	case strings.Contains(errLower, "cannot delete or update a parent row"):
		return ErrorInfo{Code: ResourceConflict, Message: MsgReferenced}
	case strings.Contains(errLower, "foreign key constraint"):
		return parseMissingReference(errLower)
	case strings.Contains(errLower, "cannot be null") || strings.Contains(errLower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: MsgRequired}
	case strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Code: InternalExternalAPI, Message: MsgExternalAPI}
	}

	return ErrorInfo{Code: InternalServerError, Message: MsgServerError}
}

func parseDuplicateKeyError(msg string) ErrorInfo {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "line_user_id"):
		return ErrorInfo{Code: AuthAlreadyRegistered, Message: MsgAlreadyRegistered}
	case strings.Contains(msg, "username"):
		return ErrorInfo{Code: AdminUsernameExists, Message: MsgAdminExists}
	case strings.Contains(msg, "idx_bills_address_period") || strings.Contains(msg, "bills.period_key"):
		return ErrorInfo{Code: BillAlreadyExists, Message: MsgBillAlreadyExists}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: MsgAlreadyExists}
}

func parseMissingReference(msg string) ErrorInfo {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "address_id"):
		return ErrorInfo{Code: AddressNotFound, Message: MsgAddressNotFound}
	case strings.Contains(msg, "user_id"):
		return ErrorInfo{Code: UserNotFound, Message: MsgUserNotFound}
	case strings.Contains(msg, "bill_id"):
		return ErrorInfo{Code: BillNotFound, Message: MsgBillNotFound}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: MsgNotFound}
}

func notFoundCode(context string) string {
	switch strings.ToLower(context) {
	case "user":
		return UserNotFound
	case "address":
		return AddressNotFound
	case "bill":
		return BillNotFound
	case "slip":
		return SlipNotFound
	case "issue":
		return IssueNotFound
	case "notification":
		return NotificationNotFound
	case "admin":
		return AdminNotFound
	}
	return ResourceNotFound
}

func notFoundMessage(context string) string {
	switch strings.ToLower(context) {
	case "user":
		return MsgUserNotFound
	case "address":
		return MsgAddressNotFound
	case "bill":
		return MsgBillNotFound
	case "slip":
		return MsgSlipNotFound
	case "issue":
		return MsgIssueNotFound
	case "notification":
		return MsgNotificationMissing
	case "admin":
		return MsgAdminNotFound
	}
	return MsgNotFound
}

// ParseAndRespond parses err and writes it with the given status
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
