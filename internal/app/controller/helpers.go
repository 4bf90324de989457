package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
	"github.com/wastebill/wastebill-backend/internal/storage"
	"github.com/wastebill/wastebill-backend/pkg/util"
)

const dateLayout = "2006-01-02"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps service sentinels to HTTP replies. First match wins.
var serviceErrors = []errorMapping{
	{service.ErrLineTokenInvalid, http.StatusUnauthorized, apperrors.AuthLineTokenInvalid, apperrors.MsgLineTokenInvalid},
	{service.ErrLineUnavailable, http.StatusBadGateway, apperrors.InternalExternalAPI, apperrors.MsgExternalAPI},
	{service.ErrUserNotRegistered, http.StatusNotFound, apperrors.AuthNotRegistered, apperrors.MsgNotRegistered},
	{service.ErrUserAlreadyRegistered, http.StatusConflict, apperrors.AuthAlreadyRegistered, apperrors.MsgAlreadyRegistered},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, apperrors.MsgTokenInvalid},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, apperrors.MsgInvalidCredentials},
	{service.ErrAccountDisabled, http.StatusForbidden, apperrors.AuthAccountDisabled, apperrors.MsgAccountDisabled},

	{service.ErrUserNotFound, http.StatusNotFound, apperrors.UserNotFound, apperrors.MsgUserNotFound},
	{service.ErrUserAlreadyVerified, http.StatusConflict, apperrors.UserAlreadyVerified, apperrors.MsgUserAlreadyVerified},
	{service.ErrProfileLocked, http.StatusConflict, apperrors.UserProfileLocked, apperrors.MsgProfileLocked},
	{service.ErrUserNotVerified, http.StatusConflict, apperrors.UserNotVerified, apperrors.MsgUserNotVerified},

	{service.ErrAddressNotFound, http.StatusNotFound, apperrors.AddressNotFound, apperrors.MsgAddressNotFound},
	{service.ErrUnauthorizedAccess, http.StatusForbidden, apperrors.AuthzOwnerOnly, apperrors.MsgForbidden},
	{service.ErrAddressLocked, http.StatusConflict, apperrors.AddressAlreadyVerified, apperrors.MsgAddressLocked},
	{service.ErrAddressAlreadyVerified, http.StatusConflict, apperrors.AddressAlreadyVerified, apperrors.MsgAddressLocked},
	{service.ErrAddressNotVerified, http.StatusConflict, apperrors.AddressNotVerified, apperrors.MsgAddressNotVerified},
	{service.ErrInvalidAddressType, http.StatusBadRequest, apperrors.PriceInvalidType, apperrors.MsgInvalidAddressType},
	{service.ErrInvalidAddressScan, http.StatusBadRequest, apperrors.AddressInvalidBarcode, apperrors.MsgInvalidBarcode},

	{service.ErrInvalidPriceRow, http.StatusBadRequest, apperrors.PriceInvalidType, apperrors.MsgInvalidInput},
	{service.ErrEmptyPriceTable, http.StatusBadRequest, apperrors.ValidationRequired, apperrors.MsgRequired},
	{service.ErrNegativeWeight, http.StatusBadRequest, apperrors.WasteNegative, apperrors.MsgNegativeWeight},
	{service.ErrEmptyWeights, http.StatusBadRequest, apperrors.WasteEmptyRecord, apperrors.MsgEmptyWeights},
	{service.ErrInvalidWasteType, http.StatusBadRequest, apperrors.WasteInvalidType, apperrors.MsgInvalidWasteType},
	{service.ErrFutureRecordedDate, http.StatusBadRequest, apperrors.WasteInvalidRange, apperrors.MsgInvalidDateRange},

	{service.ErrBillNotFound, http.StatusNotFound, apperrors.BillNotFound, apperrors.MsgBillNotFound},
	{service.ErrBillAlreadyExists, http.StatusConflict, apperrors.BillAlreadyExists, apperrors.MsgBillAlreadyExists},
	{service.ErrInvalidBillStatus, http.StatusBadRequest, apperrors.BillInvalidStatus, apperrors.MsgBillInvalidStatus},
	{service.ErrBillAwaitingReview, http.StatusConflict, apperrors.BillAwaitingReview, apperrors.MsgBillAwaitingReview},
	{service.ErrInvalidBillKind, http.StatusBadRequest, apperrors.BillInvalidPeriod, apperrors.MsgBillInvalidPeriod},

	{service.ErrSlipNotFound, http.StatusNotFound, apperrors.SlipNotFound, apperrors.MsgSlipNotFound},
	{service.ErrNoBillsSelected, http.StatusBadRequest, apperrors.SlipNoBills, apperrors.MsgSlipNoBills},
	{service.ErrSlipBillNotPayable, http.StatusConflict, apperrors.SlipBillNotPayable, apperrors.MsgSlipBillNotPayable},
	{service.ErrSlipAlreadyReviewed, http.StatusConflict, apperrors.SlipAlreadyReviewed, apperrors.MsgSlipReviewed},
	{service.ErrSlipBillsChanged, http.StatusConflict, apperrors.SlipBillsChanged, apperrors.MsgSlipBillsChanged},
	{service.ErrInvalidSlipDecision, http.StatusBadRequest, apperrors.SlipInvalidDecision, apperrors.MsgSlipDecision},
	{service.ErrSlipTooLarge, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, apperrors.MsgUploadTooLarge},
	{service.ErrSlipUnsupportedType, http.StatusBadRequest, apperrors.UploadInvalidFileType, apperrors.MsgUploadInvalidType},
	{storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, apperrors.MsgUploadTooLarge},
	{storage.ErrUnsupportedType, http.StatusBadRequest, apperrors.UploadInvalidFileType, apperrors.MsgUploadInvalidType},

	{service.ErrIssueNotFound, http.StatusNotFound, apperrors.IssueNotFound, apperrors.MsgIssueNotFound},
	{service.ErrIssueTitleRequired, http.StatusBadRequest, apperrors.ValidationRequired, apperrors.MsgRequired},
	{service.ErrInvalidIssueTransition, http.StatusConflict, apperrors.IssueInvalidState, apperrors.MsgIssueInvalidState},
	{service.ErrNotificationNotFound, http.StatusNotFound, apperrors.NotificationNotFound, apperrors.MsgNotificationMissing},

	{service.ErrAdminNotFound, http.StatusNotFound, apperrors.AdminNotFound, apperrors.MsgAdminNotFound},
	{service.ErrAdminUsernameExists, http.StatusConflict, apperrors.AdminUsernameExists, apperrors.MsgAdminExists},
	{service.ErrInvalidAdminRole, http.StatusBadRequest, apperrors.AdminInvalidRole, apperrors.MsgAdminInvalidRole},
	{service.ErrCannotDisableSelf, http.StatusConflict, apperrors.AdminCannotDisableSelf, apperrors.MsgAdminDisableSelf},
	{service.ErrAdminPasswordTooWeak, http.StatusBadRequest, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput},
}

// respondServiceError writes the mapped reply for err, or a 500 parsed from
// the database error. entity names the resource for not-found messages.
func respondServiceError(c *gin.Context, err error, action, entity string) {
	log := middleware.GetLoggerFromContext(c)

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn(action+" rejected", map[string]interface{}{
				"error": err.Error(),
				"code":  m.code,
			})
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Error(action+" failed", err)
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, entity)
}

// respondBindError answers a failed ShouldBind with per-field Thai messages when possible
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
		"error": err.Error(),
		"path":  c.Request.URL.Path,
	})
	if fields := util.FieldErrors(err); len(fields) > 0 {
		messages := make(map[string]string, len(fields))
		for field, tag := range fields {
			messages[field] = tagMessage(tag)
		}
		apperrors.RespondWithValidationError(c, messages)
		return
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return apperrors.MsgRequired
	case "thphone":
		return apperrors.MsgInvalidPhone
	case "thidcard":
		return apperrors.MsgInvalidIDCard
	}
	return apperrors.MsgInvalidInput
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

func queryUint(c *gin.Context, key string) (*uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	v := uint(n)
	return &v, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func queryBillStatus(c *gin.Context) (*model.BillStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !model.BillStatus(n).Valid() {
		return nil, service.ErrInvalidBillStatus
	}
	s := model.BillStatus(n)
	return &s, nil
}

// dateRange reads ?from=&to= as local calendar days and returns [from, to+1day).
// Missing bounds stay nil.
func dateRange(c *gin.Context, loc *time.Location) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return nil, nil, err
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, errInvalidRange
	}
	return from, to, nil
}

var errInvalidRange = errors.New("from must be before to")

func respondInvalidRange(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Invalid date range", map[string]interface{}{
		"from":  c.Query("from"),
		"to":    c.Query("to"),
		"error": err.Error(),
	})
	apperrors.BadRequest(c, apperrors.WasteInvalidRange, apperrors.MsgInvalidDateRange)
}

// actorFrom builds the admin actor from the authenticated token
func actorFrom(c *gin.Context) (service.Actor, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return service.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)
	return service.Actor{ID: id, Role: model.AdminRole(role)}, true
}

// residentID returns the resident id from the authenticated token
func residentID(c *gin.Context) (uint, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Missing resident id in context", nil)
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return id, true
}
