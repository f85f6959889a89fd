package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openhaus-dev/openhaus/backend/models"
	"github.com/openhaus-dev/openhaus/backend/utils"
)

const minPasswordLen = 6

// AuthController handles registration, login and profile maintenance.
type AuthController struct {
	Users     UserStore
	Mail      Mailer
	JWTSecret []byte
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var p credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || !validEmail(email) {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(strings.TrimSpace(p.Password)) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "Password should be at least 6 characters long")
		return
	}

	_, err := c.Users.FindByEmail(r.Context(), email)
	if err == nil {
		writeError(w, http.StatusBadRequest, "Email is already taken")
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Printf("Error checking email %s: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	hash, err := utils.HashPassword(p.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	user := models.User{
		Email:    email,
		Password: hash,
		Username: utils.RandomCode(),
	}
	if err := c.Users.Insert(r.Context(), &user); err != nil {
		log.Printf("Error inserting user: %v", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	// Best-effort welcome: a mail outage must not block sign-up.
	if err := c.Mail.SendWelcome(r.Context(), email); err != nil {
		log.Printf("Welcome email to %s failed: %v", email, err)
	}

	token, err := utils.GenerateJWT(c.JWTSecret, user.ID.Hex())
	if err != nil {
		log.Printf("Error generating JWT token: %v", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user, "token": token})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var p credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || !validEmail(email) {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(strings.TrimSpace(p.Password)) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "Password should be at least 6 characters long")
		return
	}

	// An unknown email fails outright; accounts are only created through
	// the register endpoint.
	user, err := c.Users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusUnauthorized, "Wrong email or password")
			return
		}
		log.Printf("Error fetching user %s: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	if !utils.CheckPasswordHash(p.Password, user.Password) {
		writeError(w, http.StatusUnauthorized, "Wrong email or password")
		return
	}

	token, err := utils.GenerateJWT(c.JWTSecret, user.ID.Hex())
	if err != nil {
		log.Printf("Error generating JWT token: %v", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user, "token": token})
}

func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	user, err := c.Users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Email not found")
			return
		}
		log.Printf("Error fetching user %s: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	tempPassword := utils.RandomCode()
	hash, err := utils.HashPassword(tempPassword)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	if err := c.Users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		log.Printf("Error resetting password for %s: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	if err := c.Mail.SendPasswordReset(r.Context(), email, tempPassword); err != nil {
		log.Printf("Password reset email to %s failed: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Please check your email"})
}

func (c *AuthController) CurrentUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	user, err := c.Users.FindByID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Error fetching user %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again!")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (c *AuthController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	var p struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	password := strings.TrimSpace(p.Password)
	if password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if len(password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "Password should be minimum 6 characters long")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "An error occured while updating the password")
		return
	}

	if err := c.Users.UpdatePassword(r.Context(), uid, hash); err != nil {
		log.Printf("Error updating password for %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "An error occured while updating the password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (c *AuthController) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	var p struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.ToLower(strings.TrimSpace(p.Username))
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	if _, err := c.Users.FindByUsername(r.Context(), username); err == nil {
		writeError(w, http.StatusBadRequest, "Username is already taken")
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Printf("Error checking username %s: %v", username, err)
		writeError(w, http.StatusInternalServerError, "An error occurred while updating the profile")
		return
	}

	updated, err := c.Users.UpdateUsername(r.Context(), uid, username)
	if err != nil {
		// The unique index closes the race left by the check above.
		if mongo.IsDuplicateKeyError(err) {
			writeError(w, http.StatusBadRequest, "Username is already taken")
			return
		}
		log.Printf("Error updating username for %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "An error occurred while updating the profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	var p struct {
		Name    string        `json:"name"`
		Phone   string        `json:"phone"`
		Company string        `json:"company"`
		Address string        `json:"address"`
		About   string        `json:"about"`
		Photo   *models.Photo `json:"photo"`
		Logo    *models.Photo `json:"logo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := bson.M{}
	if v := strings.TrimSpace(p.Name); v != "" {
		fields["name"] = v
	}
	if v := strings.TrimSpace(p.Phone); v != "" {
		fields["phone"] = v
	}
	if v := strings.TrimSpace(p.Company); v != "" {
		fields["company"] = v
	}
	if v := strings.TrimSpace(p.Address); v != "" {
		fields["address"] = v
	}
	if v := strings.TrimSpace(p.About); v != "" {
		fields["about"] = v
	}
	if p.Photo != nil {
		fields["photo"] = p.Photo
	}
	if p.Logo != nil {
		fields["logo"] = p.Logo
	}

	updated, err := c.Users.UpdateProfile(r.Context(), uid, fields)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Error updating profile for %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
