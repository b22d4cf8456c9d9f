package services

import (
	"context"
	"errors"
	"testing"
)

type fakeDetector struct{ labels []string }

func (f fakeDetector) DetectLabels(context.Context, []byte) ([]string, error) { return f.labels, nil }

func TestRecognizeMatchesCatalogue(t *testing.T) {
	db := newTestDB(t)
	s := NewFoodRecognitionService(db, fakeDetector{labels: []string{"Food", "Banana", "Rice", "Banana Split"}})

	res, err := s.Recognize(context.Background(), pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, m := range res.Matches {
		names[m.Name] = true
	}
	if len(res.Matches) != 3 || !names["Banana"] || !names["White Rice"] || !names["Brown Rice"] {
		t.Fatalf("matches %+v", res.Matches)
	}
	if len(res.Labels) != 4 {
		t.Fatalf("labels %v", res.Labels)
	}
}

func TestRecognizeRejects(t *testing.T) {
	db := newTestDB(t)
	if _, err := NewFoodRecognitionService(db, fakeDetector{}).Recognize(context.Background(), []byte("nope")); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("not an image: %v", err)
	}
	if _, err := NewFoodRecognitionService(db, nil).Recognize(context.Background(), pngHeader); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("no detector: %v", err)
	}
}
