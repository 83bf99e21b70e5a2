// Package filter implements the multi-axis tag filter over the
// catalog: OR within an axis, AND across axes, with opt-in OR groups
// that union across axes before the AND-join. Alongside the result set
// it produces the three count views a stateless front-end needs to
// render facet chips without a second request.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pyplots/pyplots-backend/internal/domain"
)

type axisKind int

const (
	kindLibrary axisKind = iota
	kindSpec
	kindSpecTag
	kindImplTag
)

type axis struct {
	param    string
	category string
	kind     axisKind
}

var axes = map[string]axis{
	"lib":          {param: "lib", category: "library", kind: kindLibrary},
	"spec":         {param: "spec", category: "spec", kind: kindSpec},
	"plot":         {param: "plot", category: domain.TagPlotType, kind: kindSpecTag},
	"data":         {param: "data", category: domain.TagDataType, kind: kindSpecTag},
	"dom":          {param: "dom", category: domain.TagDomain, kind: kindSpecTag},
	"feat":         {param: "feat", category: domain.TagFeatures, kind: kindSpecTag},
	"dependencies": {param: "dependencies", category: domain.TagDependencies, kind: kindImplTag},
	"techniques":   {param: "techniques", category: domain.TagTechniques, kind: kindImplTag},
	"patterns":     {param: "patterns", category: domain.TagPatterns, kind: kindImplTag},
	"dataprep":     {param: "dataprep", category: domain.TagDataPrep, kind: kindImplTag},
	"styling":      {param: "styling", category: domain.TagStyling, kind: kindImplTag},
}

// countCategories are the facet tables exposed in every count view.
var countCategories = []struct {
	name string
	kind axisKind
}{
	{"library", kindLibrary},
	{domain.TagPlotType, kindSpecTag},
	{domain.TagDataType, kindSpecTag},
	{domain.TagDomain, kindSpecTag},
	{domain.TagFeatures, kindSpecTag},
	{domain.TagDependencies, kindImplTag},
	{domain.TagTechniques, kindImplTag},
	{domain.TagPatterns, kindImplTag},
	{domain.TagDataPrep, kindImplTag},
	{domain.TagStyling, kindImplTag},
}

// UnknownAxisError marks a query key outside the filter surface; the
// HTTP layer maps it to a validation failure.
type UnknownAxisError struct {
	Axis string
}

func (e *UnknownAxisError) Error() string {
	return fmt.Sprintf("unknown filter axis %q", e.Axis)
}

type condition struct {
	axis  axis
	value string
	group string // empty for ungrouped values
}

// Query is a parsed, canonicalised filter query.
type Query struct {
	// ungrouped OR-lists keyed by axis param.
	ungrouped map[string][]condition
	// OR-across-axes groups keyed by group label.
	groups map[string][]condition

	canonical string
}

// Parse validates the query surface and splits values into ungrouped
// axes and OR groups. A value prefixed with "~" (optionally "~<digit>"
// to address a specific group) or suffixed with "~" joins a group.
func Parse(values url.Values) (*Query, error) {
	q := &Query{
		ungrouped: map[string][]condition{},
		groups:    map[string][]condition{},
	}
	var canonical []string

	for param, raw := range values {
		ax, ok := axes[param]
		if !ok {
			return nil, &UnknownAxisError{Axis: param}
		}
		for _, chunk := range raw {
			for _, value := range strings.Split(chunk, ",") {
				value = strings.TrimSpace(value)
				if value == "" {
					continue
				}
				group, bare := splitGroupMarker(value)
				cond := condition{axis: ax, value: bare, group: group}
				if group == "" {
					q.ungrouped[param] = append(q.ungrouped[param], cond)
					canonical = append(canonical, param+"="+bare)
				} else {
					q.groups[group] = append(q.groups[group], cond)
					canonical = append(canonical, param+"=~"+group+bare)
				}
			}
		}
	}

	sort.Strings(canonical)
	q.canonical = strings.Join(canonical, "&")
	return q, nil
}

// splitGroupMarker strips the group marker from a value and returns the
// group label ("" when ungrouped).
func splitGroupMarker(value string) (group, bare string) {
	if strings.HasPrefix(value, "~") {
		rest := value[1:]
		if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			return rest[:1], rest[1:]
		}
		return "1", rest
	}
	if strings.HasSuffix(value, "~") {
		return "1", strings.TrimSuffix(value, "~")
	}
	return "", value
}

// Canonical returns the normalised query string used as the cache key
// suffix.
func (q *Query) Canonical() string { return q.canonical }

// Empty reports whether no constraint was given.
func (q *Query) Empty() bool {
	return len(q.ungrouped) == 0 && len(q.groups) == 0
}

// GroupLabels returns the declared OR group labels, sorted.
func (q *Query) GroupLabels() []string {
	labels := make([]string, 0, len(q.groups))
	for label := range q.groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Row is one filter result: an implementation with its preview
// artifacts.
type Row struct {
	SpecID       string  `json:"spec_id"`
	Library      string  `json:"library"`
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	HTMLURL      *string `json:"html_url,omitempty"`
	Code         string  `json:"code"`
}

// CountTable maps category → value → implementation count.
type CountTable map[string]map[string]int

// Response is the full filter payload: result rows plus the three
// count views.
type Response struct {
	Total         int                   `json:"total"`
	Images        []Row                 `json:"images"`
	Counts        CountTable            `json:"counts"`
	GlobalCounts  CountTable            `json:"global_counts"`
	OrGroupCounts map[string]CountTable `json:"or_group_counts"`
}

// item is one candidate implementation with decoded tags.
type item struct {
	spec     *domain.Spec
	impl     *domain.Implementation
	specTags domain.TagMap
	implTags domain.TagMap
}

// Apply evaluates the query over the catalog. Implementations without
// code or without a preview image never appear, in results or counts.
func Apply(specs []*domain.Spec, q *Query) *Response {
	items := collect(specs)

	result := items
	if !q.Empty() {
		result = make([]*item, 0, len(items))
		for _, it := range items {
			if matches(it, q, "") {
				result = append(result, it)
			}
		}
	}

	resp := &Response{
		Total:         len(result),
		Images:        rows(result),
		Counts:        counts(result),
		GlobalCounts:  counts(items),
		OrGroupCounts: map[string]CountTable{},
	}
	for _, label := range q.GroupLabels() {
		without := make([]*item, 0, len(items))
		for _, it := range items {
			if matches(it, q, label) {
				without = append(without, it)
			}
		}
		resp.OrGroupCounts[label] = counts(without)
	}
	return resp
}

func collect(specs []*domain.Spec) []*item {
	var items []*item
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		specTags := domain.DecodeTags(spec.Tags)
		for _, impl := range spec.Implementations {
			if impl == nil || !impl.Available() || !impl.HasPreview() {
				continue
			}
			items = append(items, &item{
				spec:     spec,
				impl:     impl,
				specTags: specTags,
				implTags: domain.DecodeTags(impl.Tags),
			})
		}
	}
	return items
}

// matches evaluates AND across ungrouped axes and groups, skipping one
// group when computing its per-group count view.
func matches(it *item, q *Query, skipGroup string) bool {
	for _, conds := range q.ungrouped {
		if !matchesAny(it, conds) {
			return false
		}
	}
	for label, conds := range q.groups {
		if label == skipGroup {
			continue
		}
		if !matchesAny(it, conds) {
			return false
		}
	}
	return true
}

func matchesAny(it *item, conds []condition) bool {
	for _, cond := range conds {
		if matchesCondition(it, cond) {
			return true
		}
	}
	return false
}

func matchesCondition(it *item, cond condition) bool {
	switch cond.axis.kind {
	case kindLibrary:
		return it.impl.LibraryID == cond.value
	case kindSpec:
		return it.impl.SpecID == cond.value
	case kindSpecTag:
		return it.specTags.Has(cond.axis.category, cond.value)
	case kindImplTag:
		return it.implTags.Has(cond.axis.category, cond.value)
	default:
		return false
	}
}

func rows(items []*item) []Row {
	out := make([]Row, 0, len(items))
	for _, it := range items {
		code := ""
		if it.impl.Code != nil {
			code = *it.impl.Code
		}
		out = append(out, Row{
			SpecID:       it.impl.SpecID,
			Library:      it.impl.LibraryID,
			URL:          it.impl.URL,
			ThumbnailURL: it.impl.ThumbnailURL,
			HTMLURL:      it.impl.HTMLURL,
			Code:         code,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SpecID != out[j].SpecID {
			return out[i].SpecID < out[j].SpecID
		}
		return out[i].Library < out[j].Library
	})
	return out
}

// counts tallies, per category value, how many of the given
// implementations carry it. Each implementation counts a value at most
// once.
func counts(items []*item) CountTable {
	table := make(CountTable, len(countCategories))
	for _, cat := range countCategories {
		table[cat.name] = map[string]int{}
	}
	for _, it := range items {
		table["library"][it.impl.LibraryID]++
		for _, cat := range countCategories {
			switch cat.kind {
			case kindSpecTag:
				for _, v := range it.specTags.Values(cat.name) {
					table[cat.name][v]++
				}
			case kindImplTag:
				for _, v := range it.implTags.Values(cat.name) {
					table[cat.name][v]++
				}
			}
		}
	}
	return table
}
