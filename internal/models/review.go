package models

import "time"

// ReviewStatus is the recorded state of a single review report.
type ReviewStatus string

const (
	StatusNotStarted ReviewStatus = "Not Started"
	StatusInProgress ReviewStatus = "In Progress"
	StatusCompleted  ReviewStatus = "Completed"
)

// PointTheme is the fixed categorisation for themed review entries.
type PointTheme string

const (
	ThemeAssessment       PointTheme = "Assessment"
	ThemeLearningTeaching PointTheme = "Learning and Teaching"
	ThemeCourseDesign     PointTheme = "Course Design and Development"
	ThemeEngagement       PointTheme = "Student Engagement"
)

// PointKind separates the three themed lists a review carries.
type PointKind string

const (
	PointGoodPractice PointKind = "good_practice"
	PointRisk         PointKind = "risk"
	PointEnhancePlan  PointKind = "enhance_plan"
)

// Review is one annual review report for a module. CreatedAt is the
// authoritative year anchor for all window computations; ReviewDate is a
// user-supplied display field and deliberately plays no part in them.
type Review struct {
	ID                string       `db:"id" json:"id"`
	ModuleID          string       `db:"module_id" json:"module_id"`
	Status            ReviewStatus `db:"status" json:"status"`
	ReviewDate        *time.Time   `db:"review_date" json:"review_date,omitempty"`
	EnhanceUpdate     string       `db:"enhance_update" json:"enhance_update"`
	StudentAttainment *string      `db:"student_attainment" json:"student_attainment,omitempty"`
	ModuleFeedback    *string      `db:"module_feedback" json:"module_feedback,omitempty"`
	EvidencePath      *string      `db:"evidence_path" json:"evidence_path,omitempty"`
	FeedbackPath      *string      `db:"feedback_path" json:"feedback_path,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`

	GoodPractice []ThemedPoint `db:"-" json:"good_practice"`
	Risks        []ThemedPoint `db:"-" json:"risks"`
	EnhancePlans []ThemedPoint `db:"-" json:"enhance_plans"`
}

// ThemedPoint is a single {theme, description} entry on a review. It has no
// identity outside its owning review.
type ThemedPoint struct {
	ID          string     `db:"id" json:"id"`
	ReviewID    string     `db:"review_id" json:"-"`
	Kind        PointKind  `db:"kind" json:"-"`
	Theme       PointTheme `db:"theme" json:"theme"`
	Description string     `db:"description" json:"description"`
}

// ReviewFilter scopes review fetches. From/To bound CreatedAt as a
// half-open interval [From, To).
type ReviewFilter struct {
	ModuleIDs []string
	From      *time.Time
	To        *time.Time
}

// ThemeCount is one aggregated chart bucket.
type ThemeCount struct {
	Theme PointTheme `json:"theme"`
	Count int        `json:"count"`
}

// StatusCount is one status chart bucket.
type StatusCount struct {
	Name  ReviewStatus `json:"name"`
	Count int          `json:"count"`
}

// DashboardSummary holds the scalar card values for one year/area slice.
type DashboardSummary struct {
	Year           int     `json:"year"`
	TotalModules   int     `json:"total_modules"`
	ReviewsForYear int     `json:"reviews_for_year"`
	PendingForYear int     `json:"pending_for_year"`
	CompletionRate float64 `json:"completion_rate"`
}
