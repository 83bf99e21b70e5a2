// Package ingestion scans the plots repository tree and projects it
// into the relational store. The tree is the source of truth; sync is a
// full rescan and the only writer.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pyplots/pyplots-backend/internal/domain"
)

// SpecRecord is the parsed form of one plots/<spec_id> directory.
type SpecRecord struct {
	ID               string
	Title            string
	Description      string
	Applications     []string
	DataRequirements []string
	Notes            []string
	Tags             domain.TagMap
	IssueNumber      *int
	Contributor      *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Impls            []ImplRecord
}

// ImplRecord is the parsed form of one implementation source file plus
// its metadata sidecar.
type ImplRecord struct {
	LibraryID         string
	Code              string
	URL               string
	ThumbnailURL      string
	HTMLURL           *string
	QualityScore      int
	Tags              domain.TagMap
	Model             string
	InvocationID      string
	PythonVersion     string
	LibraryVersion    string
	Strengths         []string
	Weaknesses        []string
	ImageDescription  string
	CriteriaChecklist map[string]interface{}
	Verdict           string
}

// flexTime accepts native YAML timestamps and ISO-8601 strings
// (trailing Z permitted) and normalises to naive UTC.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalYAML(node *yaml.Node) error {
	var native time.Time
	if err := node.Decode(&native); err == nil {
		t.Time = native.UTC()
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

type specSidecar struct {
	Title       string              `yaml:"title"`
	Tags        map[string][]string `yaml:"tags"`
	Issue       *int                `yaml:"issue"`
	Contributor *string             `yaml:"contributor"`
	CreatedAt   *flexTime           `yaml:"created_at"`
	UpdatedAt   *flexTime           `yaml:"updated_at"`

	// Legacy metadata.yaml nests per-implementation metadata here.
	Implementations map[string]*implSidecar `yaml:"implementations"`
}

type implSidecar struct {
	URL            string              `yaml:"url"`
	ThumbnailURL   string              `yaml:"thumbnail_url"`
	HTMLURL        *string             `yaml:"html_url"`
	QualityScore   int                 `yaml:"quality_score"`
	Tags           map[string][]string `yaml:"tags"`
	Model          string              `yaml:"model"`
	InvocationID   string              `yaml:"invocation_id"`
	PythonVersion  string              `yaml:"python_version"`
	LibraryVersion string              `yaml:"library_version"`

	Strengths         []string               `yaml:"strengths"`
	Weaknesses        []string               `yaml:"weaknesses"`
	ImageDescription  string                 `yaml:"image_description"`
	CriteriaChecklist map[string]interface{} `yaml:"criteria_checklist"`
	Verdict           string                 `yaml:"verdict"`

	// Optional nested review block; flat keys win when both appear.
	Review *implSidecar `yaml:"review"`

	// Legacy layout nests everything under current.
	Current *implSidecar `yaml:"current"`
}

// effective resolves the legacy current nesting.
func (m *implSidecar) effective() *implSidecar {
	if m == nil {
		return &implSidecar{}
	}
	if m.Current != nil {
		return m.Current
	}
	return m
}

// ParseSpecDir reads one plots/<specID> directory into a SpecRecord.
func ParseSpecDir(root, specID string) (*SpecRecord, error) {
	dir := filepath.Join(root, specID)

	mdPath, err := firstExisting(dir, "specification.md", "spec.md")
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", specID, err)
	}
	mdRaw, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, fmt.Errorf("spec %s: read markdown: %w", specID, err)
	}

	rec := &SpecRecord{ID: specID, Tags: domain.TagMap{}}
	parseSpecMarkdown(rec, string(mdRaw))

	sidecar := &specSidecar{}
	if yamlPath, err := firstExisting(dir, "specification.yaml", "metadata.yaml"); err == nil {
		raw, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("spec %s: read sidecar: %w", specID, err)
		}
		if err := yaml.Unmarshal(raw, sidecar); err != nil {
			return nil, fmt.Errorf("spec %s: parse sidecar: %w", specID, err)
		}
	}
	applySidecar(rec, sidecar)

	impls, err := parseImplementations(dir, specID, sidecar)
	if err != nil {
		return nil, err
	}
	rec.Impls = impls
	return rec, nil
}

// ScanSpecIDs enumerates the child directories of root, skipping
// dotfiles and non-directories.
func ScanSpecIDs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read plots dir %s: %w", root, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func parseImplementations(dir, specID string, sidecar *specSidecar) ([]ImplRecord, error) {
	implDir := filepath.Join(dir, "implementations")
	entries, err := os.ReadDir(implDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("spec %s: read implementations: %w", specID, err)
	}

	var impls []ImplRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".py") || strings.HasPrefix(name, "_") {
			continue
		}
		libraryID := strings.TrimSuffix(name, ".py")

		code, err := os.ReadFile(filepath.Join(implDir, name))
		if err != nil {
			return nil, fmt.Errorf("spec %s: read %s: %w", specID, name, err)
		}

		meta, err := loadImplSidecar(dir, libraryID, sidecar)
		if err != nil {
			return nil, fmt.Errorf("spec %s/%s: %w", specID, libraryID, err)
		}
		impls = append(impls, buildImplRecord(libraryID, string(code), meta))
	}
	sort.Slice(impls, func(i, j int) bool { return impls[i].LibraryID < impls[j].LibraryID })
	return impls, nil
}

// loadImplSidecar prefers the per-library metadata/<lib>.yaml file with
// flat keys at the root; the legacy layout nests entries in the spec
// sidecar under implementations, optionally wrapped in current.
func loadImplSidecar(dir, libraryID string, sidecar *specSidecar) (*implSidecar, error) {
	path := filepath.Join(dir, "metadata", libraryID+".yaml")
	raw, err := os.ReadFile(path)
	if err == nil {
		meta := &implSidecar{}
		if err := yaml.Unmarshal(raw, meta); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
		return meta.effective(), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if sidecar != nil && sidecar.Implementations != nil {
		if legacy, ok := sidecar.Implementations[libraryID]; ok {
			return legacy.effective(), nil
		}
	}
	return &implSidecar{}, nil
}

func buildImplRecord(libraryID, code string, meta *implSidecar) ImplRecord {
	rec := ImplRecord{
		LibraryID:      libraryID,
		Code:           code,
		URL:            meta.URL,
		ThumbnailURL:   meta.ThumbnailURL,
		HTMLURL:        meta.HTMLURL,
		QualityScore:   meta.QualityScore,
		Tags:           domain.TagMap(meta.Tags),
		Model:          meta.Model,
		InvocationID:   meta.InvocationID,
		PythonVersion:  meta.PythonVersion,
		LibraryVersion: meta.LibraryVersion,
	}
	if rec.Tags == nil {
		rec.Tags = domain.TagMap{}
	}
	if rec.QualityScore > domain.MaxQualityScore {
		rec.QualityScore = domain.MaxQualityScore
	}
	if rec.QualityScore < 0 {
		rec.QualityScore = 0
	}

	review := meta
	if meta.Review != nil {
		review = meta.Review
	}
	rec.Strengths = review.Strengths
	rec.Weaknesses = review.Weaknesses
	rec.ImageDescription = review.ImageDescription
	rec.CriteriaChecklist = review.CriteriaChecklist
	rec.Verdict = review.Verdict
	return rec
}

func applySidecar(rec *SpecRecord, sidecar *specSidecar) {
	if sidecar == nil {
		return
	}
	if sidecar.Title != "" {
		rec.Title = sidecar.Title
	}
	if sidecar.Tags != nil {
		rec.Tags = domain.TagMap(sidecar.Tags)
	}
	rec.IssueNumber = sidecar.Issue
	rec.Contributor = sidecar.Contributor
	if sidecar.CreatedAt != nil {
		rec.CreatedAt = sidecar.CreatedAt.Time
	}
	if sidecar.UpdatedAt != nil {
		rec.UpdatedAt = sidecar.UpdatedAt.Time
	}
}

// parseSpecMarkdown fills title, description and the bullet sections
// from the conventional markdown layout: a "# <id>: <title>" heading,
// "##" section headers, "-" or "*" bullet leaders.
func parseSpecMarkdown(rec *SpecRecord, content string) {
	section := ""
	var descLines []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			section = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			heading := strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			if idx := strings.Index(heading, ":"); idx >= 0 {
				rec.Title = strings.TrimSpace(heading[idx+1:])
			} else {
				rec.Title = heading
			}
		case trimmed == "":
			continue
		default:
			bullet, isBullet := trimBullet(trimmed)
			switch section {
			case "description":
				descLines = append(descLines, trimmed)
			case "applications":
				if isBullet {
					rec.Applications = append(rec.Applications, bullet)
				}
			case "data":
				if isBullet {
					rec.DataRequirements = append(rec.DataRequirements, bullet)
				}
			case "notes":
				if isBullet {
					rec.Notes = append(rec.Notes, bullet)
				}
			}
		}
	}
	rec.Description = strings.Join(descLines, "\n")
	if rec.Title == "" {
		rec.Title = rec.ID
	}
}

func trimBullet(line string) (string, bool) {
	if strings.HasPrefix(line, "- ") {
		return strings.TrimSpace(line[2:]), true
	}
	if strings.HasPrefix(line, "* ") {
		return strings.TrimSpace(line[2:]), true
	}
	return line, false
}

func firstExisting(dir string, names ...string) (string, error) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %s found in %s", strings.Join(names, ", "), dir)
}
