package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*AuthService, *recordingMailer) {
	db := newTestDB(t)
	m := &recordingMailer{}
	return NewAuthService(db, NewPermissionService(db), m, nopRecorder{}, testSecret, time.Hour), m
}

func TestRegisterAndLogin(t *testing.T) {
	s, mail := newAuthService(t)
	ctx := context.Background()

	u, err := s.Register(ctx, RegisterInput{Email: " Ana@Example.com ", Password: "correct-horse", FullName: "Ana Lima"}, "127.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "ana@example.com" || len(u.Roles) != 1 || u.Roles[0] != models.RoleUser {
		t.Fatalf("unexpected user %+v", u)
	}
	if mail.to != "ana@example.com" {
		t.Fatalf("welcome mail sent to %q", mail.to)
	}

	var profile models.UserProfile
	if err := s.db.Where("user_id = ?", u.ID).First(&profile).Error; err != nil {
		t.Fatal(err)
	}
	if profile.FirstName != "Ana" || profile.LastName != "Lima" {
		t.Fatalf("profile name %q %q", profile.FirstName, profile.LastName)
	}

	if _, err := s.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "another-pass"}, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate register: %v", err)
	}

	res, err := s.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "correct-horse"}, "")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := utils.ParseJWT(res.Token, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != u.ID || claims.Email != "ana@example.com" {
		t.Fatalf("claims %+v", claims)
	}
	if res.User.LastLoginAt == nil {
		t.Fatal("last login not stamped")
	}
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, RegisterInput{Email: "not-an-email", Password: "long-enough"}, ""); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("bad email: %v", err)
	}
	if _, err := s.Register(ctx, RegisterInput{Email: "a@b.c", Password: "short"}, ""); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("short password: %v", err)
	}
}

func TestLoginRejects(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	u, err := s.Register(ctx, RegisterInput{Email: "bo@example.com", Password: "password123"}, "")
	if err != nil {
		t.Fatal(err)
	}

	for name, in := range map[string]LoginInput{
		"unknown email":  {Email: "nobody@example.com", Password: "password123"},
		"wrong password": {Email: "bo@example.com", Password: "password124"},
	} {
		if _, err := s.Login(ctx, in, ""); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: %v", name, err)
		}
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := s.Login(ctx, LoginInput{Email: "bo@example.com", Password: "password123"}, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("inactive: %v", err)
	}
}

// mailedCode pulls the reset code out of the last mail sent.
func mailedCode(t *testing.T, m *recordingMailer) string {
	t.Helper()
	_, rest, ok := strings.Cut(m.body, "code is: ")
	if !ok || len(rest) < 6 {
		t.Fatalf("no reset code in %q", m.body)
	}
	return rest[:6]
}

func TestPasswordReset(t *testing.T) {
	s, mail := newAuthService(t)
	ctx := context.Background()
	for _, email := range []string{"cy@example.com", "other@example.com"} {
		if _, err := s.Register(ctx, RegisterInput{Email: email, Password: "old-password"}, ""); err != nil {
			t.Fatal(err)
		}
	}

	// Unknown addresses are accepted silently.
	if err := s.ForgotPassword(ctx, "ghost@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := s.ForgotPassword(ctx, "cy@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailedCode(t, mail)
	var u models.User
	if err := s.db.Where("email = ?", "cy@example.com").First(&u).Error; err != nil {
		t.Fatal(err)
	}
	if u.ResetToken == code || u.ResetToken != utils.HashResetCode(code) {
		t.Fatalf("stored reset token %q should be the hash of %q", u.ResetToken, code)
	}

	if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "cy@example.com", Code: "ZZZZZZ", NewPassword: "new-password"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("wrong code: %v", err)
	}
	// A code only works for the account it was issued to.
	if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "other@example.com", Code: code, NewPassword: "new-password"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("code used on another account: %v", err)
	}
	if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "CY@example.com", Code: strings.ToLower(code), NewPassword: "new-password"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Login(ctx, LoginInput{Email: "cy@example.com", Password: "new-password"}, ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	// The code is single use.
	if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "cy@example.com", Code: code, NewPassword: "third-password"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("reused code: %v", err)
	}
}

func TestPasswordResetGivesUpAfterWrongGuesses(t *testing.T) {
	s, mail := newAuthService(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, RegisterInput{Email: "fay@example.com", Password: "old-password"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.ForgotPassword(ctx, "fay@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailedCode(t, mail)
	wrong := "ZZZZZZ"
	if code == wrong {
		wrong = "YYYYYY"
	}
	for i := 0; i < maxResetAttempts; i++ {
		if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "fay@example.com", Code: wrong, NewPassword: "new-password"}); !errors.Is(err, ErrInvalidOperation) {
			t.Fatalf("guess %d: %v", i, err)
		}
	}
	if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "fay@example.com", Code: code, NewPassword: "new-password"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("code should be discarded after %d wrong guesses: %v", maxResetAttempts, err)
	}
}

func TestPasswordResetExpires(t *testing.T) {
	s, mail := newAuthService(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, RegisterInput{Email: "dee@example.com", Password: "old-password"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.ForgotPassword(ctx, "dee@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailedCode(t, mail)

	s.now = func() time.Time { return time.Now().Add(resetCodeTTL + time.Minute) }
	if err := s.ResetPassword(ctx, ResetPasswordInput{Email: "dee@example.com", Code: code, NewPassword: "new-password"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expired code: %v", err)
	}
}

func TestLoginWithGoogle(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, RegisterInput{Email: "eve@example.com", Password: "password123"}, ""); err != nil {
		t.Fatal(err)
	}

	// Existing email gets linked.
	res, err := s.LoginWithGoogle(ctx, &utils.GoogleProfile{ID: "g-1", Email: "eve@example.com", VerifiedEmail: true, Name: "Eve"}, "")
	if err != nil {
		t.Fatal(err)
	}
	var linked models.User
	s.db.First(&linked, res.User.ID)
	if linked.GoogleID == nil || *linked.GoogleID != "g-1" {
		t.Fatal("google id not linked")
	}

	// Unknown account is created with the default role.
	res, err = s.LoginWithGoogle(ctx, &utils.GoogleProfile{ID: "g-2", Email: "fay@example.com", VerifiedEmail: true, Name: "Fay Wong"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.User.Email != "fay@example.com" || len(res.User.Roles) != 1 {
		t.Fatalf("created %+v", res.User)
	}

	if _, err := s.LoginWithGoogle(ctx, &utils.GoogleProfile{Email: "x@example.com"}, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("incomplete profile: %v", err)
	}
}

func TestGoogleAvatar(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()

	res, err := s.LoginWithGoogle(ctx, &utils.GoogleProfile{ID: "g-3", Email: "gus@example.com", VerifiedEmail: true, Picture: "https://img.example.com/gus.png"}, "")
	if err != nil {
		t.Fatal(err)
	}
	var p models.UserProfile
	s.db.Where("user_id = ?", res.User.ID).First(&p)
	if p.AvatarURL != "https://img.example.com/gus.png" {
		t.Fatalf("avatar %v", p.AvatarURL)
	}

	// A failed avatar write does not fail the sign-in.
	err = s.db.Callback().Update().Before("gorm:update").Register("fail_profile_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "user_profiles" {
			tx.AddError(errors.New("profile store down"))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoginWithGoogle(ctx, &utils.GoogleProfile{ID: "g-4", Email: "hal@example.com", VerifiedEmail: true, Picture: "https://img.example.com/hal.png"}, ""); err != nil {
		t.Fatalf("sign-in failed on avatar error: %v", err)
	}
}
