package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Spec-level tag categories.
const (
	TagPlotType = "plot_type"
	TagDataType = "data_type"
	TagDomain   = "domain"
	TagFeatures = "features"
)

// Implementation-level tag categories.
const (
	TagDependencies = "dependencies"
	TagTechniques   = "techniques"
	TagPatterns     = "patterns"
	TagDataPrep     = "dataprep"
	TagStyling      = "styling"
)

var SpecTagCategories = []string{TagPlotType, TagDataType, TagDomain, TagFeatures}

var ImplTagCategories = []string{TagDependencies, TagTechniques, TagPatterns, TagDataPrep, TagStyling}

// TagMap is a category → ordered unique tag values mapping, the decoded
// form of the JSON tags column on Spec and Implementation.
type TagMap map[string][]string

// DecodeTags unmarshals a JSON tags column, returning an empty map for a
// null or empty column.
func DecodeTags(raw datatypes.JSON) TagMap {
	if len(raw) == 0 {
		return TagMap{}
	}
	var out TagMap
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return TagMap{}
	}
	return out
}

// EncodeTags marshals a tag map for storage, deduplicating values within
// each category while preserving first-seen order.
func EncodeTags(tags TagMap) datatypes.JSON {
	if tags == nil {
		tags = TagMap{}
	}
	clean := make(TagMap, len(tags))
	for cat, values := range tags {
		seen := make(map[string]bool, len(values))
		ordered := make([]string, 0, len(values))
		for _, v := range values {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			ordered = append(ordered, v)
		}
		clean[cat] = ordered
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}

// Values returns the tag values for one category, never nil.
func (t TagMap) Values(category string) []string {
	if t == nil {
		return nil
	}
	return t[category]
}

// Has reports whether the category carries the given value.
func (t TagMap) Has(category, value string) bool {
	for _, v := range t.Values(category) {
		if v == value {
			return true
		}
	}
	return false
}

// Flatten returns every tag value across all categories.
func (t TagMap) Flatten() []string {
	var out []string
	for _, values := range t {
		out = append(out, values...)
	}
	return out
}
