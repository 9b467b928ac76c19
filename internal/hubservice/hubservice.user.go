// FilePath: internal/hubservice/hubservice.user.go
package hubservice

import (
	"context"
	"net/mail"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/google/uuid"
	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength   = 8
	minNameLength       = 2
	minResetTokenLength = 10

	defaultTimezone = "UTC"
	defaultLanguage = "en"
	defaultCountry  = "US"

	msgNotRegistered = "User not registered. Please create an account first."
)

// CheckFirstUser reports whether no account exists yet
func (s *HubService) CheckFirstUser(ctx context.Context) (bool, error) {
	count, err := s.Users.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CheckEmail reports whether an account with email exists
func (s *HubService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, errors.NewValidationError("Email is required", nil)
	}
	if _, err := s.Users.GetByEmail(ctx, email); err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Register creates an operator account together with its first sensor
func (s *HubService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, errors.NewValidationError("password must be at least 8 characters", nil)
	}
	if len(name) < minNameLength {
		return nil, errors.NewValidationError("name must be at least 2 characters", nil)
	}

	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, errors.NewConflictError("User already registered. Please login using your credentials.", nil)
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	user := &models.User{
		ID:           nuts.NID("usr", 12),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleOperator,
		Timezone:     defaultTimezone,
		Language:     defaultLanguage,
		Country:      defaultCountry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	if _, err := s.createDefaultSensor(ctx, user.ID); err != nil {
		return nil, err
	}

	nuts.L.Infof("[UserService] Registered user %s", user.ID)
	return s.authResult(user)
}

// Login checks the password of an existing account
func (s *HubService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, errors.NewValidationError("password is required", nil)
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError(msgNotRegistered, nil)
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.NewAuthError("Invalid credentials", nil)
	}
	return s.authResult(user)
}

// Me returns the caller's profile
func (s *HubService) Me(ctx context.Context) (*models.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return filterUser(user, GetUserRoles(ctx))
}

// UpdatePreferences applies a profile PATCH to the caller with role-based access control
func (s *HubService) UpdatePreferences(ctx context.Context, prefs *models.UserPreferences) (*models.User, error) {
	existing, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if prefs.Name != nil {
		name := strings.TrimSpace(*prefs.Name)
		if len(name) < minNameLength {
			return nil, errors.NewValidationError("name must be at least 2 characters", nil)
		}
		updated.Name = name
	}
	if prefs.Email != nil {
		email := strings.TrimSpace(*prefs.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		updated.Email = email
	}
	if prefs.Role != nil {
		if *prefs.Role != models.RoleOperator && *prefs.Role != models.RoleAdmin {
			return nil, errors.NewValidationError("role must be operator or admin", nil)
		}
		updated.Role = *prefs.Role
	}
	if prefs.Timezone != nil {
		if _, err := time.LoadLocation(*prefs.Timezone); err != nil {
			return nil, errors.NewValidationError("unknown timezone", err)
		}
		updated.Timezone = *prefs.Timezone
	}
	if prefs.Language != nil {
		updated.Language = *prefs.Language
	}
	if prefs.Country != nil {
		updated.Country = *prefs.Country
	}

	// Use struccy to update fields based on role access
	roles := GetUserRoles(ctx)
	updatedFields, _, err := struccy.UpdateStructFields(existing, &updated, roles, true, true)
	if err != nil {
		return nil, errors.NewAuthorizationError("unauthorized field update", err)
	}

	if updated.Email != existing.Email {
		if _, err := s.Users.GetByEmail(ctx, updated.Email); err == nil {
			return nil, errors.NewConflictError("email already in use", nil)
		} else if !errors.IsNotFound(err) {
			return nil, err
		}
	}
	updated.UpdatedAt = s.now().Unix()

	nuts.L.Infof("[UserService] Updating profile of %s, fields changed: %v", updated.ID, updatedFields)
	if err := s.Users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return filterUser(&updated, roles)
}

// ChangePassword replaces the caller's password after checking the current one
func (s *HubService) ChangePassword(ctx context.Context, req *models.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return errors.NewValidationError("password must be at least 8 characters", nil)
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return errors.NewAuthError("Current password is incorrect", nil)
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().Unix()
	return s.Users.Update(ctx, user)
}

// ForgotPassword issues a short-lived reset token. It is returned to the caller directly.
func (s *HubService) ForgotPassword(ctx context.Context, email string) (*models.PasswordResetTicket, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError(msgNotRegistered, nil)
		}
		return nil, err
	}

	now := s.now()
	token := uuid.NewString()
	expires := now.Add(s.config.ResetTokenTTL).Unix()
	user.ResetToken = &token
	user.ResetExpires = &expires
	user.UpdatedAt = now.Unix()
	if err := s.Users.Update(ctx, user); err != nil {
		return nil, err
	}

	nuts.L.Infof("[UserService] Reset token issued for %s", user.ID)
	return &models.PasswordResetTicket{
		Message:    "Password reset token generated. Use it within 15 minutes.",
		ResetToken: token,
		ExpiresAt:  expires,
	}, nil
}

// ResetPassword sets a new password when token matches the account's unexpired reset token
func (s *HubService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(req.Token) < minResetTokenLength {
		return errors.NewValidationError("token must be at least 10 characters", nil)
	}
	if len(req.NewPassword) < minPasswordLength {
		return errors.NewValidationError("password must be at least 8 characters", nil)
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewNotFoundError(msgNotRegistered, nil)
		}
		return err
	}
	now := s.now().Unix()
	if user.ResetToken == nil || user.ResetExpires == nil || *user.ResetToken != req.Token || *user.ResetExpires < now {
		return errors.NewValidationError("Invalid or expired reset token", nil)
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetExpires = nil
	user.UpdatedAt = now
	return s.Users.Update(ctx, user)
}

// DeviceConfig returns the pairing details of the caller's newest sensor, creating one if needed
func (s *HubService) DeviceConfig(ctx context.Context) (*models.DeviceConfig, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	sensors, err := s.Sensors.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var sensor *models.Sensor
	if len(sensors) > 0 {
		sensor = sensors[0]
	} else if sensor, err = s.createDefaultSensor(ctx, user.ID); err != nil {
		return nil, err
	}

	return &models.DeviceConfig{
		DeviceID:  sensor.ID,
		APIKey:    sensor.APIKey,
		UserID:    user.ID,
		UserEmail: user.Email,
		CreatedAt: time.Unix(user.CreatedAt, 0).UTC().Format(time.RFC3339),
	}, nil
}

// DeleteAccount removes the caller and all of their data
func (s *HubService) DeleteAccount(ctx context.Context) error {
	userID := GetUserID(ctx)
	if userID == "" {
		return errors.NewAuthError("no user context found", nil)
	}
	if err := s.Cleanup.DeleteAccount(ctx, userID); err != nil {
		return err
	}
	nuts.L.Infof("[UserService] Account deleted: %s", userID)
	return nil
}

func (s *HubService) currentUser(ctx context.Context) (*models.User, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return nil, errors.NewAuthError("no user context found", nil)
	}
	return s.Users.Get(ctx, userID)
}

func (s *HubService) authResult(user *models.User) (*models.AuthResult, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	filtered, err := filterUser(user, []string{user.Role})
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{Token: token, User: filtered}, nil
}

// filterUser returns a copy of user holding only the fields roles may read.
// The map is merged back as system since read access was already applied.
func filterUser(user *models.User, roles []string) (*models.User, error) {
	filteredMap, err := struccy.StructToMapFieldsWithReadXS(user, roles)
	if err != nil {
		return nil, errors.NewInternalError("failed to filter user fields", err)
	}
	filtered := &models.User{}
	_, err = struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, []string{models.RoleSystem})
	if err != nil {
		return nil, errors.NewInternalError("failed to map filtered fields to user struct", err)
	}
	return filtered, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.NewValidationError("Email is required", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.NewValidationError("invalid email address", err)
	}
	return nil
}
