package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/pkg/line"
)

func validRegistration() LineRegisterRequest {
	return LineRegisterRequest{
		IDToken:  "token-1",
		Name:     "สมชาย ใจดี",
		IDCardNo: "1234567890121",
		PhoneNo:  "081-234-5678",
	}
}

func TestAuthController_RegisterWithLine_Success(t *testing.T) {
	ts := setupControllerTest(t)
	ts.Verifier.claims["token-1"] = &line.IDTokenClaims{Subject: "U100", Picture: "https://profile.line/p.png"}

	w := ts.do(t, http.MethodPost, "/api/v1/auth/line/register", "", validRegistration())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "U100", user["line_user_id"])
	assert.Equal(t, "0812345678", user["phone_no"])
	assert.EqualValues(t, 0, user["verify_status"])
	tokens := resp["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestAuthController_RegisterWithLine_FieldErrors(t *testing.T) {
	ts := setupControllerTest(t)

	req := validRegistration()
	req.PhoneNo = "12345"
	req.IDCardNo = "1234567890122"

	w := ts.do(t, http.MethodPost, "/api/v1/auth/line/register", "", req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, apperrors.ValidationInvalidInput, resp["error"])
	fields := resp["fields"].(map[string]interface{})
	assert.Equal(t, apperrors.MsgInvalidPhone, fields["phone_no"])
	assert.Equal(t, apperrors.MsgInvalidIDCard, fields["id_card_no"])
}

func TestAuthController_RegisterWithLine_AlreadyRegistered(t *testing.T) {
	ts := setupControllerTest(t)
	ts.Verifier.claims["token-1"] = &line.IDTokenClaims{Subject: "U100"}

	first := ts.do(t, http.MethodPost, "/api/v1/auth/line/register", "", validRegistration())
	require.Equal(t, http.StatusCreated, first.Code)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/line/register", "", validRegistration())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.AuthAlreadyRegistered, decode(t, w)["error"])
}

func TestAuthController_LoginWithLine(t *testing.T) {
	ts := setupControllerTest(t)
	ts.Verifier.claims["known"] = &line.IDTokenClaims{Subject: "U-known"}
	ts.Verifier.claims["stranger"] = &line.IDTokenClaims{Subject: "U-stranger"}
	ts.resident(t, "U-known")

	tests := []struct {
		name     string
		idToken  string
		wantCode int
		wantErr  string
	}{
		{name: "Registered resident", idToken: "known", wantCode: http.StatusOK},
		{name: "Unregistered LINE account", idToken: "stranger", wantCode: http.StatusNotFound, wantErr: apperrors.AuthNotRegistered},
		{name: "Forged token", idToken: "forged", wantCode: http.StatusUnauthorized, wantErr: apperrors.AuthLineTokenInvalid},
		{name: "LINE unreachable", idToken: "down", wantCode: http.StatusBadGateway, wantErr: apperrors.InternalExternalAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/auth/line/login", "", LineLoginRequest{IDToken: tt.idToken})

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode(t, w)["error"])
			}
		})
	}
}

func TestAuthController_GetMe(t *testing.T) {
	ts := setupControllerTest(t)
	user, token := ts.resident(t, "U200")
	ts.address(t, user.ID)

	w := ts.do(t, http.MethodGet, "/api/v1/me", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "U200", got["line_user_id"])
	assert.Len(t, got["addresses"], 1)
}

func TestAuthController_GetMe_AdminTokenRejected(t *testing.T) {
	ts := setupControllerTest(t)
	token := ts.admin(t, "staff01", "staff")

	w := ts.do(t, http.MethodGet, "/api/v1/me", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthController_UpdateMe_LockedAfterVerification(t *testing.T) {
	ts := setupControllerTest(t)
	_, token := ts.resident(t, "U300")

	name := "ชื่อใหม่"
	w := ts.do(t, http.MethodPut, "/api/v1/me", token, UpdateMeRequest{Name: &name})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.UserProfileLocked, decode(t, w)["error"])

	phone := "0899999999"
	w = ts.do(t, http.MethodPut, "/api/v1/me", token, UpdateMeRequest{PhoneNo: &phone})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, phone, decode(t, w)["user"].(map[string]interface{})["phone_no"])
}

func TestAuthController_Logout_RevokesAccessToken(t *testing.T) {
	ts := setupControllerTest(t)
	_, token := ts.resident(t, "U400")

	w := ts.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RefreshToken_Invalid(t *testing.T) {
	ts := setupControllerTest(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: "not-a-jwt"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
