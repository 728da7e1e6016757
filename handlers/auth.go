package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/middlewares"
	"github.com/havrebakery/bakery-api/models"
	"github.com/havrebakery/bakery-api/utils"
)

func userPayload(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"role":      u.Role,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"fullName":  u.FullName(),
	}
}

func Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []models.FieldError
	if req.Username == "" {
		errs = append(errs, models.FieldError{Field: "username", Message: "Username is required"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, models.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if len(errs) > 0 {
		utils.RespondValidationErrors(w, errs)
		return
	}

	user, err := dbhelper.GetUserByLogin(req.Username)
	if err == sql.ErrNoRows {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	} else if err != nil {
		logrus.WithError(err).Error("login lookup failed")
		utils.RespondError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	if !user.IsActive || !utils.CheckPassword(user.Password, req.Password) {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user.ID, user.Role)
	if err != nil {
		logrus.WithError(err).Error("failed to generate tokens")
		utils.RespondError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	if err := dbhelper.TouchLastLogin(user.ID, refreshToken); err != nil {
		logrus.WithError(err).Error("failed to record login")
		utils.RespondError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Login successful",
		"token":        accessToken,
		"refreshToken": refreshToken,
		"user":         userPayload(user),
	})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	if user, err := middlewares.GetAuthenticatedUser(r); err == nil {
		if err := dbhelper.ClearRefreshToken(user.ID); err != nil {
			logrus.WithError(err).Error("failed to clear refresh token")
			utils.RespondError(w, http.StatusInternalServerError, "Server error during logout")
			return
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

func Register(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username  string      `json:"username"`
		Email     string      `json:"email"`
		Password  string      `json:"password"`
		FirstName string      `json:"firstName"`
		LastName  string      `json:"lastName"`
		Role      models.Role `json:"role"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []models.FieldError
	if len(req.Username) < 3 {
		errs = append(errs, models.FieldError{Field: "username", Message: "Username must be at least 3 characters"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, models.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, models.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if len(req.FirstName) > 50 {
		errs = append(errs, models.FieldError{Field: "firstName", Message: "First name cannot exceed 50 characters"})
	}
	if len(req.LastName) > 50 {
		errs = append(errs, models.FieldError{Field: "lastName", Message: "Last name cannot exceed 50 characters"})
	}
	if len(errs) > 0 {
		utils.RespondValidationErrors(w, errs)
		return
	}

	exists, err := dbhelper.IsUserExists(req.Username, req.Email)
	if err != nil {
		logrus.WithError(err).Error("failed to check user existence")
		utils.RespondError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}
	if exists {
		utils.RespondError(w, http.StatusBadRequest, "User already exists")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !role.IsValid() {
		utils.RespondError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		utils.RespondError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	var user *models.User
	var accessToken, refreshToken string
	txErr := database.Tx(func(tx *sql.Tx) error {
		userID, err := dbhelper.CreateUser(tx, req.Username, req.Email, hashedPassword, role, req.FirstName, req.LastName)
		if err != nil {
			return err
		}

		accessToken, refreshToken, err = utils.GenerateTokens(userID, role)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, refreshToken)
		if err != nil {
			return err
		}

		user = &models.User{
			ID:        userID,
			Username:  req.Username,
			Email:     req.Email,
			Role:      role,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}
		return nil
	})
	if txErr != nil {
		logrus.WithError(txErr).Error("failed to register user")
		utils.RespondError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"message":      "User registered successfully",
		"token":        accessToken,
		"refreshToken": refreshToken,
		"user":         userPayload(user),
	})
}

func RefreshToken(w http.ResponseWriter, r *http.Request) {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	userID, err := utils.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	user, err := dbhelper.GetUserByID(userID)
	if err == sql.ErrNoRows {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	} else if err != nil {
		logrus.WithError(err).Error("refresh lookup failed")
		utils.RespondError(w, http.StatusInternalServerError, "Server error refreshing token")
		return
	}

	// the presented token must still be the one on record
	if user.RefreshToken != req.RefreshToken {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	newAccessToken, newRefreshToken, err := utils.GenerateTokens(user.ID, user.Role)
	if err != nil {
		logrus.WithError(err).Error("failed to generate tokens")
		utils.RespondError(w, http.StatusInternalServerError, "Server error refreshing token")
		return
	}
	if err := dbhelper.SetRefreshToken(user.ID, newRefreshToken); err != nil {
		logrus.WithError(err).Error("failed to rotate refresh token")
		utils.RespondError(w, http.StatusInternalServerError, "Server error refreshing token")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"token":        newAccessToken,
		"refreshToken": newRefreshToken,
	})
}

func GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	type request struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Phone     string `json:"phone"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		req.Email = user.Email
	}
	var errs []models.FieldError
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, models.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	if len(req.FirstName) > 50 {
		errs = append(errs, models.FieldError{Field: "firstName", Message: "First name cannot exceed 50 characters"})
	}
	if len(req.LastName) > 50 {
		errs = append(errs, models.FieldError{Field: "lastName", Message: "Last name cannot exceed 50 characters"})
	}
	if len(errs) > 0 {
		utils.RespondValidationErrors(w, errs)
		return
	}

	updated, err := dbhelper.UpdateProfile(user.ID, req.Email, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		logrus.WithError(err).Error("failed to update profile")
		utils.RespondError(w, http.StatusInternalServerError, "Server error updating profile")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
		"user":    updated,
	})
}
