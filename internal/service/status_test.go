package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modtrack/amr-api/internal/models"
)

func reviewWith(status models.ReviewStatus, createdAt time.Time) models.Review {
	return models.Review{ID: string(status) + createdAt.Format(time.RFC3339), Status: status, CreatedAt: createdAt}
}

func TestConsolidateStatusPrecedence(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		statuses []models.ReviewStatus
		want     models.ReviewStatus
	}{
		{"empty set", nil, models.StatusNotStarted},
		{"single not started", []models.ReviewStatus{models.StatusNotStarted}, models.StatusNotStarted},
		{"in progress beats not started", []models.ReviewStatus{models.StatusNotStarted, models.StatusInProgress}, models.StatusInProgress},
		{"completed beats everything", []models.ReviewStatus{models.StatusInProgress, models.StatusCompleted, models.StatusNotStarted}, models.StatusCompleted},
		{"single completed", []models.ReviewStatus{models.StatusCompleted}, models.StatusCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]models.Review, 0, len(tc.statuses))
			for i, status := range tc.statuses {
				reviews = append(reviews, reviewWith(status, base.Add(time.Duration(i)*time.Hour)))
			}
			assert.Equal(t, tc.want, ConsolidateStatus(reviews))
		})
	}
}

func TestConsolidateStatusOrderIndependent(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	forward := []models.Review{
		reviewWith(models.StatusCompleted, base),
		reviewWith(models.StatusInProgress, base.Add(time.Hour)),
	}
	backward := []models.Review{forward[1], forward[0]}

	assert.Equal(t, ConsolidateStatus(forward), ConsolidateStatus(backward))
	assert.Equal(t, models.StatusCompleted, ConsolidateStatus(backward))
}

func TestConsolidateStatusIgnoresRecency(t *testing.T) {
	// An old Completed review outweighs a newer In Progress one. The
	// summary cards deliberately disagree; see TestLatestReview.
	old := reviewWith(models.StatusCompleted, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	recent := reviewWith(models.StatusInProgress, time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, models.StatusCompleted, ConsolidateStatus([]models.Review{old, recent}))
}

func TestLatestReview(t *testing.T) {
	assert.Nil(t, LatestReview(nil))

	old := reviewWith(models.StatusCompleted, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	recent := reviewWith(models.StatusInProgress, time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC))

	latest := LatestReview([]models.Review{old, recent})
	require.NotNil(t, latest)
	assert.Equal(t, models.StatusInProgress, latest.Status)

	latest = LatestReview([]models.Review{recent, old})
	require.NotNil(t, latest)
	assert.Equal(t, models.StatusInProgress, latest.Status)
}

func TestYearWindowBoundaries(t *testing.T) {
	from, to := YearWindow(2024)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), to)

	boundary := []models.Review{
		reviewWith(models.StatusCompleted, from),                     // first instant, in
		reviewWith(models.StatusCompleted, to.Add(-time.Nanosecond)), // last instant, in
		reviewWith(models.StatusCompleted, to),                       // next year, out
		reviewWith(models.StatusCompleted, from.Add(-time.Nanosecond)),
	}
	matched := reviewsInWindow(boundary, from, to)
	assert.Len(t, matched, 2)
}
