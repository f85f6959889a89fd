package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/openhaus-dev/openhaus/backend/models"
	"github.com/openhaus-dev/openhaus/backend/utils"
)

func testAuthController() (*AuthController, *fakeUserStore, *fakeMailer) {
	users := newFakeUserStore()
	mail := newFakeMailer()
	ctrl := &AuthController{Users: users, Mail: mail, JWTSecret: []byte("test-secret")}
	return ctrl, users, mail
}

func TestRegister(t *testing.T) {
	ctrl, users, mail := testAuthController()

	payload := map[string]string{"email": " New@Test.Com ", "password": "hunter22"}
	rec := httptest.NewRecorder()
	ctrl.Register(rec, authedRequest(t, "POST", "/register", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusCreated, rec.Code)

	// the email is normalized before it is stored
	user, err := users.FindByEmail(context.Background(), "new@test.com")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleBuyer}, user.Role)
	assert.Len(t, user.Username, 6)
	assert.NotEqual(t, "hunter22", user.Password)
	assert.True(t, utils.CheckPasswordHash("hunter22", user.Password))

	assert.Equal(t, []string{"new@test.com"}, mail.welcomes)

	body := decodeBody(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok)
	claims, err := utils.ValidateJWT(ctrl.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"empty email", "", "hunter22", "A valid email is required"},
		{"malformed email", "not-an-email", "hunter22", "A valid email is required"},
		{"short password", "ok@test.com", "abc", "Password should be at least 6 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, users, _ := testAuthController()

			payload := map[string]string{"email": tt.email, "password": tt.password}
			rec := httptest.NewRecorder()
			ctrl.Register(rec, authedRequest(t, "POST", "/register", payload, primitive.NilObjectID, nil))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
			assert.Empty(t, users.users)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctrl, users, _ := testAuthController()
	users.add(&models.User{Email: "taken@test.com"})

	payload := map[string]string{"email": "Taken@test.com", "password": "hunter22"}
	rec := httptest.NewRecorder()
	ctrl.Register(rec, authedRequest(t, "POST", "/register", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is already taken", decodeBody(t, rec)["error"])
	assert.Len(t, users.users, 1)
}

func TestLogin(t *testing.T) {
	ctrl, users, _ := testAuthController()
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)
	user := users.add(&models.User{Email: "known@test.com", Password: hash})

	payload := map[string]string{"email": "known@test.com", "password": "hunter22"}
	rec := httptest.NewRecorder()
	ctrl.Login(rec, authedRequest(t, "POST", "/login", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok)
	claims, err := utils.ValidateJWT(ctrl.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
}

func TestLoginUnknownEmailDoesNotRegister(t *testing.T) {
	ctrl, users, _ := testAuthController()

	payload := map[string]string{"email": "nobody@test.com", "password": "hunter22"}
	rec := httptest.NewRecorder()
	ctrl.Login(rec, authedRequest(t, "POST", "/login", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Wrong email or password", decodeBody(t, rec)["error"])
	assert.Empty(t, users.users)
}

func TestLoginWrongPassword(t *testing.T) {
	ctrl, users, _ := testAuthController()
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)
	users.add(&models.User{Email: "known@test.com", Password: hash})

	payload := map[string]string{"email": "known@test.com", "password": "wrong-pass"}
	rec := httptest.NewRecorder()
	ctrl.Login(rec, authedRequest(t, "POST", "/login", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Wrong email or password", decodeBody(t, rec)["error"])
}

func TestForgotPassword(t *testing.T) {
	ctrl, users, mail := testAuthController()
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)
	user := users.add(&models.User{Email: "known@test.com", Password: hash})

	payload := map[string]string{"email": "known@test.com"}
	rec := httptest.NewRecorder()
	ctrl.ForgotPassword(rec, authedRequest(t, "POST", "/forgot-password", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	temp, ok := mail.resets["known@test.com"]
	require.True(t, ok, "a temporary password must be mailed")
	assert.Len(t, temp, 6)

	// the stored hash matches the mailed temporary password, not the old one
	assert.False(t, utils.CheckPasswordHash("hunter22", user.Password))
	assert.True(t, utils.CheckPasswordHash(temp, user.Password))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	ctrl, _, mail := testAuthController()

	payload := map[string]string{"email": "nobody@test.com"}
	rec := httptest.NewRecorder()
	ctrl.ForgotPassword(rec, authedRequest(t, "POST", "/forgot-password", payload, primitive.NilObjectID, nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Email not found", decodeBody(t, rec)["error"])
	assert.Empty(t, mail.resets)
}

func TestUpdateUsernameTaken(t *testing.T) {
	ctrl, users, _ := testAuthController()
	users.add(&models.User{Username: "taken"})
	caller := users.add(&models.User{Username: "mine"})

	payload := map[string]string{"username": "Taken"}
	rec := httptest.NewRecorder()
	ctrl.UpdateUsername(rec, authedRequest(t, "PUT", "/api/update-username", payload, caller.ID, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username is already taken", decodeBody(t, rec)["error"])
	assert.Equal(t, "mine", caller.Username)
}

func TestUpdateUsername(t *testing.T) {
	ctrl, users, _ := testAuthController()
	caller := users.add(&models.User{Username: "mine"})

	payload := map[string]string{"username": "  Fresh "}
	rec := httptest.NewRecorder()
	ctrl.UpdateUsername(rec, authedRequest(t, "PUT", "/api/update-username", payload, caller.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fresh", caller.Username)
}

func TestUpdatePasswordValidation(t *testing.T) {
	ctrl, users, _ := testAuthController()
	caller := users.add(&models.User{Password: "old-hash"})

	payload := map[string]string{"password": "abc"}
	rec := httptest.NewRecorder()
	ctrl.UpdatePassword(rec, authedRequest(t, "PUT", "/api/update-password", payload, caller.ID, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "old-hash", caller.Password)
}

func TestUpdateProfileSkipsEmptyFields(t *testing.T) {
	ctrl, users, _ := testAuthController()
	caller := users.add(&models.User{Name: "Old Name", Phone: "0400 000 000"})

	payload := map[string]string{"name": "New Name", "phone": "   "}
	rec := httptest.NewRecorder()
	ctrl.UpdateProfile(rec, authedRequest(t, "PUT", "/api/update-profile", payload, caller.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New Name", caller.Name)
	assert.Equal(t, "0400 000 000", caller.Phone, "blank fields are left untouched")
}

func TestCurrentUser(t *testing.T) {
	ctrl, users, _ := testAuthController()
	caller := users.add(&models.User{Email: "me@test.com", Username: "me"})

	rec := httptest.NewRecorder()
	ctrl.CurrentUser(rec, authedRequest(t, "GET", "/api/current-user", nil, caller.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "me@test.com", body["email"])

	// the password hash never leaves the server
	_, leaked := body["password"]
	assert.False(t, leaked)
}
