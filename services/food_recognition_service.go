package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

// Labels too generic to be worth a catalogue lookup.
var genericLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plant": true, "produce": true,
	"lunch": true, "dinner": true, "breakfast": true, "plate": true, "bowl": true,
}

type FoodRecognitionService struct {
	db       *gorm.DB
	detector LabelDetector
}

func NewFoodRecognitionService(db *gorm.DB, detector LabelDetector) *FoodRecognitionService {
	return &FoodRecognitionService{db: db, detector: detector}
}

type RecognitionResult struct {
	Labels  []string          `json:"labels"`
	Matches []models.FoodItem `json:"matches"`
}

// Recognize detects labels in a food photo and looks each one up in the catalogue.
func (s *FoodRecognitionService) Recognize(ctx context.Context, image []byte) (*RecognitionResult, error) {
	if _, _, err := utils.SniffImage(image); err != nil {
		return nil, invalid("%s", err.Error())
	}
	if s.detector == nil {
		return nil, invalid("food recognition is not configured")
	}
	labels, err := s.detector.DetectLabels(ctx, image)
	if err != nil {
		return nil, err
	}

	out := &RecognitionResult{Labels: labels, Matches: []models.FoodItem{}}
	seen := map[uint]bool{}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || genericLabels[strings.ToLower(l)] {
			continue
		}
		var foods []models.FoodItem
		if err := s.db.WithContext(ctx).
			Where("LOWER(name) LIKE ?", likePattern(l)).
			Order("name").Limit(5).
			Find(&foods).Error; err != nil {
			return nil, err
		}
		for _, f := range foods {
			if !seen[f.ID] {
				seen[f.ID] = true
				out.Matches = append(out.Matches, f)
			}
		}
	}
	return out, nil
}
