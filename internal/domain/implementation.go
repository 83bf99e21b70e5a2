package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Review verdicts emitted by the AI reviewer.
const (
	VerdictApproved = "APPROVED"
	VerdictRejected = "REJECTED"
)

// MaxQualityScore bounds the reviewer's quality score.
const MaxQualityScore = 100

// Implementation realises a Spec in one plotting Library. Identity is
// the (spec_id, library_id) pair.
type Implementation struct {
	ID        UUID   `gorm:"primaryKey" json:"id"`
	SpecID    string `gorm:"column:spec_id;not null;uniqueIndex:idx_impl_spec_library" json:"spec_id"`
	LibraryID string `gorm:"column:library_id;not null;uniqueIndex:idx_impl_spec_library" json:"library_id"`

	Spec    *Spec    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SpecID;references:ID" json:"-"`
	Library *Library `gorm:"constraint:OnDelete:CASCADE;foreignKey:LibraryID;references:ID" json:"library,omitempty"`

	// Code is the implementation source. A null code means the pipeline
	// has not produced this implementation yet; such rows are hidden
	// from public listings.
	Code *string `gorm:"column:code" json:"code,omitempty"`

	URL          string  `gorm:"column:url" json:"url"`
	ThumbnailURL string  `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	HTMLURL      *string `gorm:"column:html_url" json:"html_url,omitempty"`

	QualityScore int            `gorm:"column:quality_score;not null;default:0" json:"quality_score"`
	Tags         datatypes.JSON `gorm:"column:tags" json:"tags"`

	// Generation provenance.
	Model          string `gorm:"column:model" json:"model"`
	InvocationID   string `gorm:"column:invocation_id" json:"invocation_id"`
	PythonVersion  string `gorm:"column:python_version" json:"python_version"`
	LibraryVersion string `gorm:"column:library_version" json:"library_version"`

	// Review payload.
	Strengths         StringArray    `gorm:"column:strengths" json:"strengths"`
	Weaknesses        StringArray    `gorm:"column:weaknesses" json:"weaknesses"`
	ImageDescription  string         `gorm:"column:image_description" json:"image_description"`
	CriteriaChecklist datatypes.JSON `gorm:"column:criteria_checklist" json:"criteria_checklist"`
	Verdict           string         `gorm:"column:verdict" json:"verdict"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Implementation) TableName() string { return "implementation" }

// Available reports whether the implementation may appear in public
// listings.
func (i *Implementation) Available() bool {
	return i.Code != nil
}

// HasPreview reports whether a rendered still image exists; the filter
// endpoint omits rows without one.
func (i *Implementation) HasPreview() bool {
	return i.URL != ""
}
