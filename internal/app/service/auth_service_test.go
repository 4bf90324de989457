package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/line"
	"github.com/wastebill/wastebill-backend/pkg/util"
)

func registerResident(t *testing.T, env *testEnv, token, lineID string) (*model.User, *util.TokenPair) {
	env.Verifier.claims[token] = &line.IDTokenClaims{Subject: lineID, Name: "LINE Name", Picture: "https://profile.line-scdn.net/a"}
	user, tokens, err := env.Auth.RegisterWithLine(context.Background(), RegisterInput{
		IDToken:  token,
		Name:     "สมชาย ใจดี",
		IDCardNo: "1-1037-02071-81-1",
		PhoneNo:  "081-234-5678",
	})
	require.NoError(t, err)
	return user, tokens
}

func TestAuthService_RegisterWithLine(t *testing.T) {
	env := setupServiceTest(t)

	user, tokens := registerResident(t, env, "tok-1", "U100")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "U100", user.LineUserID)
	assert.Equal(t, "สมชาย ใจดี", user.Name)
	assert.Equal(t, "1103702071811", user.IDCardNo)
	assert.Equal(t, "0812345678", user.PhoneNo)
	assert.Equal(t, model.VerifyStatusPending, user.VerifyStatus)
	assert.NotEmpty(t, tokens.AccessToken)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, model.ResidentRole, claims.Role)
	assert.Equal(t, user.ID, claims.SubjectID)

	// confirmation lands in the inbox and on LINE
	count, err := env.Notifications.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	sent := env.Pusher.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "U100", sent[0].To)
	assert.Contains(t, sent[0].Text, "ลงทะเบียนสำเร็จ")
}

func TestAuthService_RegisterWithLine_Errors(t *testing.T) {
	env := setupServiceTest(t)
	registerResident(t, env, "tok-1", "U100")

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "Already registered", token: "tok-1", wantErr: ErrUserAlreadyRegistered},
		{name: "Invalid ID token", token: "forged", wantErr: ErrLineTokenInvalid},
		{name: "LINE unavailable", token: "down", wantErr: ErrLineUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := env.Auth.RegisterWithLine(context.Background(), RegisterInput{IDToken: tt.token, Name: "x"})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, user)
			assert.Nil(t, tokens)
		})
	}
}

func TestAuthService_LoginWithLine(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	env.Verifier.claims["new"] = &line.IDTokenClaims{Subject: "U-unknown"}
	_, _, err := env.Auth.LoginWithLine(ctx, "new")
	assert.ErrorIs(t, err, ErrUserNotRegistered)

	registered, _ := registerResident(t, env, "tok-1", "U100")
	env.Verifier.claims["tok-2"] = &line.IDTokenClaims{Subject: "U100", Picture: "https://profile.line-scdn.net/b"}

	user, tokens, err := env.Auth.LoginWithLine(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, tokens.RefreshToken)

	stored, err := env.UserRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://profile.line-scdn.net/b", stored.PictureURL)
}

func TestAuthService_RefreshToken_Resident(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	_, tokens := registerResident(t, env, "tok-1", "U100")

	old, err := util.ValidateToken(tokens.RefreshToken, testJWTSecret)
	require.NoError(t, err)

	fresh, err := env.Auth.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)
	assert.Contains(t, env.Revoked, old.ID)

	_, err = env.Auth.RefreshToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.Auth.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_RefreshToken_AdminDeactivated(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	admin, err := env.Admins.CreateAdmin(env.Admin, CreateAdminInput{
		Username: "acc01",
		Password: "password123",
		Role:     model.AdminRoleAccountant,
	})
	require.NoError(t, err)
	_, tokens, err := env.Admins.Login(ctx, "acc01", "password123")
	require.NoError(t, err)

	fresh, err := env.Auth.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := util.ValidateToken(fresh.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, string(model.AdminRoleAccountant), claims.Role)

	require.NoError(t, env.Admins.DeactivateAdmin(env.Admin, admin.ID))
	_, err = env.Auth.RefreshToken(ctx, fresh.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	env := setupServiceTest(t)
	_, tokens := registerResident(t, env, "tok-1", "U100")

	access, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	refresh, err := util.ValidateToken(tokens.RefreshToken, testJWTSecret)
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(context.Background(), access, tokens.RefreshToken))
	assert.Contains(t, env.Revoked, access.ID)
	assert.Contains(t, env.Revoked, refresh.ID)
	assert.Greater(t, env.Revoked[refresh.ID], env.Revoked[access.ID])
}

func TestAuthService_UpdateMe(t *testing.T) {
	env := setupServiceTest(t)
	pending := env.resident(t, "U-pending", false)
	verified := env.resident(t, "U-verified", true)

	newName := "สมศรี มีสุข"
	user, err := env.Auth.UpdateMe(pending.ID, ProfileInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, user.Name)

	_, err = env.Auth.UpdateMe(verified.ID, ProfileInput{Name: &newName})
	assert.ErrorIs(t, err, ErrProfileLocked)

	idCard := "1103702071811"
	_, err = env.Auth.UpdateMe(verified.ID, ProfileInput{IDCardNo: &idCard})
	assert.ErrorIs(t, err, ErrProfileLocked)

	phone := "090 000 1111"
	sameName := verified.Name
	user, err = env.Auth.UpdateMe(verified.ID, ProfileInput{Name: &sameName, PhoneNo: &phone})
	require.NoError(t, err)
	assert.Equal(t, "0900001111", user.PhoneNo)

	_, err = env.Auth.UpdateMe(9999, ProfileInput{PhoneNo: &phone})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_GetMe(t *testing.T) {
	env := setupServiceTest(t)
	user := env.resident(t, "U1", true)
	env.address(t, user.ID, true, model.AddressHousehold)

	me, err := env.Auth.GetMe(user.ID)
	require.NoError(t, err)
	require.Len(t, me.Addresses, 1)
	assert.Equal(t, "WB00000001", me.Addresses[0].Barcode)

	_, err = env.Auth.GetMe(404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
