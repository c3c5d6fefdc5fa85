package models

import "time"

// Variant periods a module can be delivered in.
const (
	PeriodSemester1 = "Semester 1"
	PeriodSemester2 = "Semester 2"
	PeriodYearLong  = "Year-long"
)

// Module represents a taught module. LeadID is the legacy module-level lead
// retained only for the reminder email lookup; the authoritative lead lives
// on each variant.
type Module struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Area        *string   `db:"area" json:"area,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	Partnership *string   `db:"partnership" json:"partnership,omitempty"`
	LeadID      *string   `db:"lead_id" json:"lead_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Variants []Variant `db:"-" json:"variants,omitempty"`
}

// Variant is one offered instance of a module: a code, level and delivery
// period with its own lead. Every module carries at least one.
type Variant struct {
	ID       string  `db:"id" json:"id"`
	ModuleID string  `db:"module_id" json:"module_id"`
	Code     string  `db:"code" json:"code"`
	Level    int     `db:"level" json:"level"`
	Period   string  `db:"period" json:"period"`
	LeadID   *string `db:"lead_id" json:"lead_id,omitempty"`
}

// ModuleFilter carries every filter the module table accepts. Multi-valued
// fields match with OR inside the group; groups combine with AND.
type ModuleFilter struct {
	Areas       []string
	Locations   []string
	TitleSearch string
	Levels      []int
	Periods     []string
	CodeSearch  string
	LeadSearch  string
	Statuses    []ReviewStatus
	Year        *int

	Page     int
	PageSize int
}

// ModuleRow is one line of the module table: a (module, variant) pair with
// its derived review state. ReviewIDs holds every review that matched the
// window, ordered oldest to newest; presentation picks one explicitly.
type ModuleRow struct {
	ModuleID       string       `json:"module_id"`
	Title          string       `json:"title"`
	Area           *string      `json:"area,omitempty"`
	Location       *string      `json:"location,omitempty"`
	Code           string       `json:"code"`
	Level          int          `json:"level"`
	Period         string       `json:"period"`
	Status         ReviewStatus `json:"status"`
	LastReviewDate *time.Time   `json:"last_review_date,omitempty"`
	ReviewIDs      []string     `json:"-"`
	LeadName       string       `json:"lead_name"`
	ReviewYear     *int         `json:"review_year,omitempty"`
}
