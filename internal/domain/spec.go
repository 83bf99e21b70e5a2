package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Spec is a library-agnostic plot description. The on-disk repository
// owns the canonical content; these rows are a regeneratable projection
// written only by the synchroniser.
type Spec struct {
	ID               string         `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Description      string         `gorm:"column:description" json:"description"`
	Applications     StringArray    `gorm:"column:applications" json:"applications"`
	DataRequirements StringArray    `gorm:"column:data_requirements" json:"data_requirements"`
	Notes            StringArray    `gorm:"column:notes" json:"notes"`
	Tags             datatypes.JSON `gorm:"column:tags" json:"tags"`
	IssueNumber      *int           `gorm:"column:issue_number" json:"issue_number,omitempty"`
	Contributor      *string        `gorm:"column:contributor" json:"contributor,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`

	Implementations []*Implementation `gorm:"foreignKey:SpecID;references:ID" json:"implementations,omitempty"`
}

func (Spec) TableName() string { return "spec" }

// AvailableImplementations filters out rows whose code has not been
// produced yet; those are suppressed from every public listing.
func (s *Spec) AvailableImplementations() []*Implementation {
	out := make([]*Implementation, 0, len(s.Implementations))
	for _, impl := range s.Implementations {
		if impl != nil && impl.Available() {
			out = append(out, impl)
		}
	}
	return out
}
