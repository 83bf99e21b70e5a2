// Package services implements the cached read path over the catalog
// repositories: listings, filtering, social-preview composition and the
// sitemap.
package services

import (
	"time"

	"github.com/pyplots/pyplots-backend/internal/domain"
)

// ImageView is one preview artifact in an images listing.
type ImageView struct {
	SpecID       string  `json:"spec_id"`
	Library      string  `json:"library"`
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	HTMLURL      *string `json:"html_url,omitempty"`
	QualityScore int     `json:"quality_score"`
}

// SpecListItem is one row of GET /specs.
type SpecListItem struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Tags         domain.TagMap `json:"tags"`
	Libraries    []string      `json:"libraries"`
	LibraryCount int           `json:"library_count"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ImplementationView is the public shape of one implementation inside
// a spec detail.
type ImplementationView struct {
	Library          string        `json:"library"`
	Code             string        `json:"code"`
	URL              string        `json:"url"`
	ThumbnailURL     string        `json:"thumbnail_url"`
	HTMLURL          *string       `json:"html_url,omitempty"`
	QualityScore     int           `json:"quality_score"`
	Tags             domain.TagMap `json:"tags"`
	Strengths        []string      `json:"strengths"`
	Weaknesses       []string      `json:"weaknesses"`
	ImageDescription string        `json:"image_description,omitempty"`
	Verdict          string        `json:"verdict,omitempty"`
}

// SpecDetail is the payload of GET /specs/{id}.
type SpecDetail struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Applications     []string             `json:"applications"`
	DataRequirements []string             `json:"data_requirements"`
	Notes            []string             `json:"notes"`
	Tags             domain.TagMap        `json:"tags"`
	IssueNumber      *int                 `json:"issue_number,omitempty"`
	Contributor      *string              `json:"contributor,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Implementations  []ImplementationView `json:"implementations"`
}

// Stats is the payload of GET /stats.
type Stats struct {
	SpecCount           int            `json:"spec_count"`
	ImplementationCount int            `json:"implementation_count"`
	LibraryCount        int            `json:"library_count"`
	ImplsPerLibrary     map[string]int `json:"impls_per_library"`
	AverageQuality      float64        `json:"average_quality"`
}

// ImplView builds the public view of one implementation.
func ImplView(impl *domain.Implementation) ImplementationView {
	code := ""
	if impl.Code != nil {
		code = *impl.Code
	}
	return ImplementationView{
		Library:          impl.LibraryID,
		Code:             code,
		URL:              impl.URL,
		ThumbnailURL:     impl.ThumbnailURL,
		HTMLURL:          impl.HTMLURL,
		QualityScore:     impl.QualityScore,
		Tags:             domain.DecodeTags(impl.Tags),
		Strengths:        impl.Strengths,
		Weaknesses:       impl.Weaknesses,
		ImageDescription: impl.ImageDescription,
		Verdict:          impl.Verdict,
	}
}

func imageView(impl *domain.Implementation) ImageView {
	return ImageView{
		SpecID:       impl.SpecID,
		Library:      impl.LibraryID,
		URL:          impl.URL,
		ThumbnailURL: impl.ThumbnailURL,
		HTMLURL:      impl.HTMLURL,
		QualityScore: impl.QualityScore,
	}
}
