package services

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func pct(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return round2((actual / goal) * 100.0)
}

// Days are UTC calendar days whatever zone the driver hands back.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// ParseDate accepts a plain date (YYYY-MM-DD) or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalid("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// parseOptionalDate returns def for an empty string.
func parseOptionalDate(s string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseDate(s)
}

type PageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p PageQuery) normalize() PageQuery {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = defaultPageSize
	case p.PageSize > maxPageSize:
		p.PageSize = maxPageSize
	}
	return p
}

func (p PageQuery) offset() int { return (p.Page - 1) * p.PageSize }

type Paged[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// paginate counts and fetches one page of q. The query is wrapped in a new
// session so the count does not leak into the select.
func paginate[T any](q *gorm.DB, pq PageQuery, order string) (*Paged[T], error) {
	p := pq.normalize()
	q = q.Session(&gorm.Session{})
	out := &Paged[T]{Items: []T{}, Page: p.Page, PageSize: p.PageSize}
	if err := q.Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if err := q.Order(order).Offset(p.offset()).Limit(p.PageSize).Find(&out.Items).Error; err != nil {
		return nil, err
	}
	return out, nil
}
