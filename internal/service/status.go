package service

import (
	"time"

	"github.com/modtrack/amr-api/internal/models"
)

// ConsolidateStatus derives the single status for a module from the reviews
// already scoped to it (and optionally to a year window). Fixed precedence:
// any Completed review wins, otherwise any In Progress, otherwise
// Not Started. An empty set is valid and yields Not Started. This is a
// conservative policy, not a vote and not latest-wins: one completed review
// marks the module reviewed regardless of duplicate or legacy submissions
// in lesser states.
func ConsolidateStatus(reviews []models.Review) models.ReviewStatus {
	anyInProgress := false
	for _, review := range reviews {
		switch review.Status {
		case models.StatusCompleted:
			return models.StatusCompleted
		case models.StatusInProgress:
			anyInProgress = true
		}
	}
	if anyInProgress {
		return models.StatusInProgress
	}
	return models.StatusNotStarted
}

// LatestReview returns the review with the greatest creation timestamp, or
// nil for an empty set. The dashboard summary cards use this last-write-wins
// rule instead of ConsolidateStatus; the two are intentionally distinct and
// must not be merged.
func LatestReview(reviews []models.Review) *models.Review {
	var latest *models.Review
	for i := range reviews {
		if latest == nil || reviews[i].CreatedAt.After(latest.CreatedAt) {
			latest = &reviews[i]
		}
	}
	return latest
}

// YearWindow returns the half-open interval [Jan 1 of year, Jan 1 of year+1)
// in UTC used to scope review creation timestamps.
func YearWindow(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// reviewsInWindow keeps reviews whose creation time falls in [from, to).
func reviewsInWindow(reviews []models.Review, from, to time.Time) []models.Review {
	matched := make([]models.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.CreatedAt.Before(from) || !review.CreatedAt.Before(to) {
			continue
		}
		matched = append(matched, review)
	}
	return matched
}
