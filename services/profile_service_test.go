package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type memStorage struct{ keys []string }

func (m *memStorage) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func strp(s string) *string { return &s }

func TestProfileUpdate(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "body@example.com", models.RoleUser)
	s := NewProfileService(db, nil, nopRecorder{})
	s.now = fixedClock(day("2026-06-01"))
	ctx := context.Background()

	bad := []ProfileInput{
		{HeightCm: f64(20)},
		{WeightKg: f64(900)},
		{DateOfBirth: strp("2030-01-01")},
		{Gender: strp("robot")},
		{DateOfBirth: strp("01/02/1990")},
	}
	for i, in := range bad {
		if _, err := s.Update(ctx, u.ID, in); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("case %d: %v", i, err)
		}
	}

	v, err := s.Update(ctx, u.ID, ProfileInput{
		FullName:    strp("Body Builder"),
		DateOfBirth: strp("1996-06-02"),
		Gender:      strp("Female"),
		HeightCm:    f64(170),
		WeightKg:    f64(65),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.FullName != "Body Builder" || v.Gender != "female" {
		t.Fatalf("profile %+v", v)
	}
	if v.Age == nil || *v.Age != 29 {
		t.Fatalf("age %v", v.Age)
	}
	if v.BMI == nil || *v.BMI != 22.49 || v.BMICategory != "Normal weight" {
		t.Fatalf("bmi %v %q", v.BMI, v.BMICategory)
	}

	// Nil fields stay untouched.
	v, err = s.Update(ctx, u.ID, ProfileInput{WeightKg: f64(70)})
	if err != nil {
		t.Fatal(err)
	}
	if v.HeightCm != 170 || v.Gender != "female" || v.WeightKg != 70 {
		t.Fatalf("partial update %+v", v.UserProfile)
	}
}

func TestUploadAvatar(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "pic@example.com", models.RoleUser)
	store := &memStorage{}
	s := NewProfileService(db, store, nopRecorder{})
	ctx := context.Background()

	if _, err := s.UploadAvatar(ctx, u.ID, []byte("plain text")); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("text upload: %v", err)
	}
	url, err := s.UploadAvatar(ctx, u.ID, pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.keys) != 1 || !strings.HasPrefix(store.keys[0], "avatars/") || !strings.HasSuffix(store.keys[0], ".png") {
		t.Fatalf("keys %v", store.keys)
	}
	v, err := s.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.AvatarURL != url {
		t.Fatalf("avatar %q, want %q", v.AvatarURL, url)
	}
}
