package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	tok, err := GenerateJWT(42, "a@b.test", []string{"User"}, "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseJWT(tok, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.Email != "a@b.test" || len(claims.Roles) != 1 {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != jwtIssuer {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestParseJWTRejects(t *testing.T) {
	expired, _ := GenerateJWT(1, "a@b.test", nil, "secret", -time.Minute)
	valid, _ := GenerateJWT(1, "a@b.test", nil, "secret", time.Hour)
	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"expired", expired, "secret"},
		{"wrong secret", valid, "other"},
		{"garbage", "not.a.jwt", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWT(tt.token, tt.secret); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("correct horse", h) {
		t.Error("matching password rejected")
	}
	if CheckPasswordHash("wrong", h) {
		t.Error("wrong password accepted")
	}
}

func TestCalculateBMI(t *testing.T) {
	tests := []struct {
		name     string
		h, w     float64
		want     float64
		category string
		wantErr  bool
	}{
		{"normal", 180, 75, 23.15, "Normal weight", false},
		{"overweight", 170, 80, 27.68, "Overweight", false},
		{"zero", 0, 70, 0, "", true},
		{"implausible", 300, 70, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateBMI(tt.h, tt.w)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("bmi = %v, want %v", got, tt.want)
			}
			if c := BMICategory(got); c != tt.category {
				t.Errorf("category = %q", c)
			}
		})
	}
}

func TestCalculateAge(t *testing.T) {
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		if got := CalculateAge(dob, tt.now); got != tt.want {
			t.Errorf("CalculateAge(%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestGenerateResetCode(t *testing.T) {
	code := GenerateResetCode()
	if len(code) != 6 {
		t.Fatalf("len = %d", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeCharset, r) {
			t.Errorf("unexpected rune %q", r)
		}
	}
	if GenerateRandomToken(32) == GenerateRandomToken(32) {
		t.Error("tokens repeat")
	}
}

func TestSniffImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ct, ext, err := SniffImage(png)
	if err != nil || ct != "image/png" || ext != ".png" {
		t.Fatalf("png: %s %s %v", ct, ext, err)
	}
	if _, _, err := SniffImage([]byte("hello world")); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("text accepted: %v", err)
	}
	big := append(append([]byte{}, png...), bytes.Repeat([]byte{0}, MaxImageBytes)...)
	if _, _, err := SniffImage(big); err == nil {
		t.Error("oversized image accepted")
	}
}

func TestDecodeDataURL(t *testing.T) {
	got, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil || string(got) != "hello" {
		t.Fatalf("got %q, %v", got, err)
	}
	got, err = DecodeDataURL("aGVsbG8=")
	if err != nil || string(got) != "hello" {
		t.Fatalf("bare: got %q, %v", got, err)
	}
	if _, err := DecodeDataURL("data:image/png;base64,%%%"); err == nil {
		t.Error("invalid payload accepted")
	}
}
