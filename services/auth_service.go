package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

const (
	minPasswordLen = 8
	resetCodeTTL   = 15 * time.Minute
	// wrong guesses before an outstanding reset code is discarded
	maxResetAttempts = 5
)

// dummyHash is compared against when the email is unknown so both paths cost one bcrypt.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

type AuthService struct {
	db        *gorm.DB
	perms     *PermissionService
	mailer    utils.Mailer
	actions   ActionRecorder
	jwtSecret string
	jwtTTL    time.Duration
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, perms *PermissionService, mailer utils.Mailer, actions ActionRecorder, jwtSecret string, jwtTTL time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		perms:     perms,
		mailer:    mailer,
		actions:   actions,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// UserView is a user with the role names (and, for /me, permission codes) attached.
type UserView struct {
	models.User
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions,omitempty"`
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, ip string) (*UserView, error) {
	email := normalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, invalid("invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, PasswordHash: hash, FullName: strings.TrimSpace(in.FullName), IsActive: true}
	if err := s.createUser(ctx, &user); err != nil {
		return nil, err
	}

	if err := utils.SendWelcomeEmail(ctx, s.mailer, user.Email, user.FullName); err != nil {
		logger.Warn("welcome email failed", zap.String("email", user.Email), zap.Error(err))
	}
	s.actions.Record(ctx, user.ID, ActionRegister, "", ip)
	return &UserView{User: user, Roles: []string{models.RoleUser}}, nil
}

// createUser inserts the user, an empty profile and the default role in one transaction.
func (s *AuthService) createUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflict("email %s is already registered", user.Email)
		}

		var role models.Role
		if err := tx.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("default role missing, run seed")
			}
			return err
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}
		first, last := splitName(user.FullName)
		profile := models.UserProfile{UserID: user.ID, FirstName: first, LastName: last}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.Profile = &profile
		return tx.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error
	})
}

func (s *AuthService) Login(ctx context.Context, in LoginInput, ip string) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(in.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash := string(dummyHash)
	if err == nil && user.PasswordHash != "" {
		hash = user.PasswordHash
	}
	ok := utils.CheckPasswordHash(in.Password, hash)
	if err != nil || user.PasswordHash == "" || !ok {
		return nil, unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, unauthorized("account is disabled")
	}

	res, err := s.issue(ctx, &user)
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, user.ID, ActionLogin, "", ip)
	return res, nil
}

// LoginWithGoogle finds the account by Google id, then by email (linking it),
// and creates one when neither exists.
func (s *AuthService) LoginWithGoogle(ctx context.Context, p *utils.GoogleProfile, ip string) (*AuthResult, error) {
	if p == nil || p.ID == "" || p.Email == "" {
		return nil, unauthorized("incomplete Google profile")
	}
	if !p.VerifiedEmail {
		return nil, unauthorized("Google email is not verified")
	}
	email := normalizeEmail(p.Email)

	var user models.User
	err := s.db.WithContext(ctx).Where("google_id = ?", p.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			user.GoogleID = &p.ID
			if err := s.db.WithContext(ctx).Model(&user).Update("google_id", p.ID).Error; err != nil {
				return nil, err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			gid := p.ID
			user = models.User{Email: email, FullName: p.Name, GoogleID: &gid, IsActive: true}
			if err := s.createUser(ctx, &user); err != nil {
				return nil, err
			}
			if p.Picture != "" {
				if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).
					Where("user_id = ?", user.ID).Update("avatar_url", p.Picture).Error; err != nil {
					logger.Warn("google avatar not saved", zap.Uint("user_id", user.ID), zap.Error(err))
				}
			}
		default:
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, unauthorized("account is disabled")
	}
	res, err := s.issue(ctx, &user)
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, user.ID, ActionGoogleLogin, "", ip)
	return res, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	roles, err := s.perms.UserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.db.WithContext(ctx).Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := utils.GenerateJWT(user.ID, user.Email, roles, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: now.Add(s.jwtTTL), User: UserView{User: *user, Roles: roles}}, nil
}

// ForgotPassword never reveals whether the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code := utils.GenerateResetCode()
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_token":     utils.HashResetCode(code),
		"reset_token_exp": s.now().Add(resetCodeTTL),
		"reset_attempts":  0,
	}).Error; err != nil {
		return err
	}
	if err := utils.SendResetEmail(ctx, s.mailer, user.Email, code); err != nil {
		logger.Error("reset email failed", zap.String("email", user.Email), zap.Error(err))
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return invalid("reset code is required")
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("invalid or expired reset code")
	}
	if err != nil {
		return err
	}
	if user.ResetToken == "" || s.now().After(user.ResetTokenExp) {
		return invalid("invalid or expired reset code")
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetToken), []byte(utils.HashResetCode(in.Code))) != 1 {
		// A code dies after maxResetAttempts wrong guesses.
		updates := map[string]any{"reset_attempts": gorm.Expr("reset_attempts + 1")}
		if user.ResetAttempts+1 >= maxResetAttempts {
			updates = map[string]any{"reset_token": "", "reset_token_exp": time.Time{}, "reset_attempts": 0}
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return invalid("invalid or expired reset code")
	}
	if len(in.NewPassword) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password_hash":   hash,
		"reset_token":     "",
		"reset_token_exp": time.Time{},
		"reset_attempts":  0,
	}).Error; err != nil {
		return err
	}
	s.actions.Record(ctx, user.ID, ActionPasswordReset, "", "")
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return dbErr(err, "user")
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(in.CurrentPassword, user.PasswordHash) {
		return unauthorized("current password is incorrect")
	}
	if len(in.NewPassword) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
		return err
	}
	s.actions.Record(ctx, user.ID, ActionPasswordChange, "", "")
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, userID).Error; err != nil {
		return nil, dbErr(err, "user")
	}
	roles, err := s.perms.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.perms.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, Roles: roles, Permissions: perms}, nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
