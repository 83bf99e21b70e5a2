package domain

import "time"

// Library is a supported plotting library. A fixed seed set is
// maintained by the synchroniser; the read path treats rows as
// immutable.
type Library struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Version     string    `gorm:"column:version" json:"version"`
	DocsURL     string    `gorm:"column:docs_url" json:"docs_url"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Implementations []*Implementation `gorm:"foreignKey:LibraryID;references:ID" json:"implementations,omitempty"`
}

func (Library) TableName() string { return "library" }

// SeedLibraries is the fixed library set ensured on every sync and used
// as the /libraries fallback when no database is configured.
func SeedLibraries() []*Library {
	return []*Library{
		{ID: "matplotlib", Name: "Matplotlib", Version: "3.10", DocsURL: "https://matplotlib.org/stable/", Description: "The foundational Python plotting library"},
		{ID: "seaborn", Name: "Seaborn", Version: "0.13", DocsURL: "https://seaborn.pydata.org/", Description: "Statistical data visualization built on Matplotlib"},
		{ID: "plotly", Name: "Plotly", Version: "6.0", DocsURL: "https://plotly.com/python/", Description: "Interactive browser-based charting"},
		{ID: "bokeh", Name: "Bokeh", Version: "3.6", DocsURL: "https://docs.bokeh.org/", Description: "Interactive visualization for modern web browsers"},
		{ID: "altair", Name: "Altair", Version: "5.5", DocsURL: "https://altair-viz.github.io/", Description: "Declarative statistical visualization based on Vega-Lite"},
		{ID: "pygal", Name: "Pygal", Version: "3.0", DocsURL: "https://www.pygal.org/", Description: "Dynamic SVG charting"},
	}
}
