package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

type ProfileService struct {
	db      *gorm.DB
	storage utils.ObjectStorage
	actions ActionRecorder
	now     func() time.Time
}

func NewProfileService(db *gorm.DB, storage utils.ObjectStorage, actions ActionRecorder) *ProfileService {
	return &ProfileService{db: db, storage: storage, actions: actions, now: time.Now}
}

type ProfileView struct {
	models.UserProfile
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Age         *int     `json:"age,omitempty"`
	BMI         *float64 `json:"bmi,omitempty"`
	BMICategory string   `json:"bmi_category,omitempty"`
}

// ProfileInput is a partial update: nil fields are left as they are.
type ProfileInput struct {
	FullName      *string  `json:"full_name"`
	FirstName     *string  `json:"first_name"`
	LastName      *string  `json:"last_name"`
	DateOfBirth   *string  `json:"date_of_birth"` // YYYY-MM-DD
	Gender        *string  `json:"gender"`
	HeightCm      *float64 `json:"height_cm"`
	WeightKg      *float64 `json:"weight_kg"`
	ActivityLevel *string  `json:"activity_level"`
	Bio           *string  `json:"bio"`
}

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*ProfileView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, userID).Error; err != nil {
		return nil, dbErr(err, "user")
	}
	profile := models.UserProfile{UserID: user.ID}
	if user.Profile != nil {
		profile = *user.Profile
	}

	out := &ProfileView{UserProfile: profile, Email: user.Email, FullName: user.FullName}
	if profile.DateOfBirth != nil {
		age := utils.CalculateAge(*profile.DateOfBirth, s.now())
		out.Age = &age
	}
	if bmi, err := utils.CalculateBMI(profile.HeightCm, profile.WeightKg); err == nil {
		out.BMI = &bmi
		out.BMICategory = utils.BMICategory(bmi)
	}
	return out, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileInput) (*ProfileView, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).
		Where(models.UserProfile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		profile.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		profile.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.DateOfBirth != nil {
		if *in.DateOfBirth == "" {
			profile.DateOfBirth = nil
		} else {
			dob, err := ParseDate(*in.DateOfBirth)
			if err != nil {
				return nil, err
			}
			if dob.After(s.now()) {
				return nil, invalid("date of birth cannot be in the future")
			}
			profile.DateOfBirth = &dob
		}
	}
	if in.Gender != nil {
		g := strings.ToLower(strings.TrimSpace(*in.Gender))
		if g != "" && !validGenders[g] {
			return nil, invalid("gender must be one of male, female, other")
		}
		profile.Gender = g
	}
	if in.HeightCm != nil {
		if *in.HeightCm < 50 || *in.HeightCm > 250 {
			return nil, invalid("height must be between 50 and 250 cm")
		}
		profile.HeightCm = *in.HeightCm
	}
	if in.WeightKg != nil {
		if *in.WeightKg < 10 || *in.WeightKg > 400 {
			return nil, invalid("weight must be between 10 and 400 kg")
		}
		profile.WeightKg = *in.WeightKg
	}
	if in.ActivityLevel != nil {
		profile.ActivityLevel = strings.TrimSpace(*in.ActivityLevel)
	}
	if in.Bio != nil {
		profile.Bio = *in.Bio
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.FullName != nil {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).
				Update("full_name", strings.TrimSpace(*in.FullName)).Error; err != nil {
				return err
			}
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, userID, ActionProfileUpdate, "", "")
	return s.Get(ctx, userID)
}

// UploadAvatar validates the image bytes, stores them and saves the public URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, data []byte) (string, error) {
	ct, ext, err := utils.SniffImage(data)
	if err != nil {
		return "", invalid("%s", err.Error())
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	key := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), ext)
	url, err := s.storage.Upload(ctx, key, data, ct)
	if err != nil {
		return "", err
	}

	profile := models.UserProfile{}
	if err := s.db.WithContext(ctx).
		Where(models.UserProfile{UserID: userID}).
		Assign(models.UserProfile{AvatarURL: url}).
		FirstOrCreate(&profile).Error; err != nil {
		return "", err
	}
	s.actions.Record(ctx, userID, ActionAvatarUpload, key, "")
	return url, nil
}
