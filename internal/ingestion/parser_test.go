package ingestion

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const scatterMarkdown = `# scatter-basic: Basic Scatter Plot

## Description
A minimal scatter plot of two numeric variables.
Points are drawn without grouping.

## Applications
- Exploring correlation between two measures
* Spotting outliers

## Data
- Two numeric columns of equal length

## Notes
- Works for up to ~10k points
`

func writeScatterFixture(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "scatter-basic")
	writeFile(t, filepath.Join(dir, "specification.md"), scatterMarkdown)
	writeFile(t, filepath.Join(dir, "specification.yaml"), `
tags:
  plot_type: [scatter]
  data_type: [numeric]
  domain: [statistics]
issue: 42
contributor: octocat
created_at: 2024-03-01T10:00:00Z
updated_at: "2024-04-01T12:30:00Z"
`)
	writeFile(t, filepath.Join(dir, "implementations", "matplotlib.py"), "import matplotlib.pyplot as plt\n")
	writeFile(t, filepath.Join(dir, "implementations", "_scratch.py"), "# ignored\n")
	writeFile(t, filepath.Join(dir, "metadata", "matplotlib.yaml"), `
url: https://storage.googleapis.com/pyplots-data/plots/scatter-basic/matplotlib/plot.png
thumbnail_url: https://storage.googleapis.com/pyplots-data/plots/scatter-basic/matplotlib/plot_thumb.png
quality_score: 92
model: reviewer-large
invocation_id: run-123
python_version: "3.12"
library_version: "3.10"
tags:
  dependencies: [numpy]
  techniques: [alpha-blending]
strengths:
  - clear axis labels
weaknesses:
  - default color cycle
image_description: A cloud of blue points on white background.
criteria_checklist:
  correctness:
    score: 5
verdict: APPROVED
`)
}

func TestParseSpecDirNewLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeScatterFixture(t, root)

	rec, err := ParseSpecDir(root, "scatter-basic")
	if err != nil {
		t.Fatalf("ParseSpecDir: %v", err)
	}

	if rec.Title != "Basic Scatter Plot" {
		t.Fatalf("title: got=%q", rec.Title)
	}
	if rec.Description == "" || rec.Description[0] != 'A' {
		t.Fatalf("description: got=%q", rec.Description)
	}
	if len(rec.Applications) != 2 || rec.Applications[1] != "Spotting outliers" {
		t.Fatalf("applications: got=%v", rec.Applications)
	}
	if len(rec.DataRequirements) != 1 || len(rec.Notes) != 1 {
		t.Fatalf("data/notes: got=%v / %v", rec.DataRequirements, rec.Notes)
	}
	if got := rec.Tags.Values("plot_type"); len(got) != 1 || got[0] != "scatter" {
		t.Fatalf("plot_type tags: got=%v", got)
	}
	if rec.IssueNumber == nil || *rec.IssueNumber != 42 {
		t.Fatalf("issue: got=%v", rec.IssueNumber)
	}
	if rec.Contributor == nil || *rec.Contributor != "octocat" {
		t.Fatalf("contributor: got=%v", rec.Contributor)
	}
	wantCreated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !rec.CreatedAt.Equal(wantCreated) {
		t.Fatalf("created_at: got=%v want=%v", rec.CreatedAt, wantCreated)
	}
	wantUpdated := time.Date(2024, 4, 1, 12, 30, 0, 0, time.UTC)
	if !rec.UpdatedAt.Equal(wantUpdated) {
		t.Fatalf("updated_at: got=%v want=%v", rec.UpdatedAt, wantUpdated)
	}

	if len(rec.Impls) != 1 {
		t.Fatalf("impl count: got=%d (underscore file must be skipped)", len(rec.Impls))
	}
	impl := rec.Impls[0]
	if impl.LibraryID != "matplotlib" {
		t.Fatalf("library: got=%q", impl.LibraryID)
	}
	if impl.Code == "" {
		t.Fatal("code missing")
	}
	if impl.QualityScore != 92 {
		t.Fatalf("quality_score: got=%d", impl.QualityScore)
	}
	if impl.Model != "reviewer-large" || impl.InvocationID != "run-123" {
		t.Fatalf("provenance: got=%q/%q", impl.Model, impl.InvocationID)
	}
	if impl.ImageDescription == "" || impl.Verdict != "APPROVED" {
		t.Fatalf("review payload: desc=%q verdict=%q", impl.ImageDescription, impl.Verdict)
	}
	if len(impl.Strengths) != 1 || len(impl.Weaknesses) != 1 {
		t.Fatalf("review lists: %v / %v", impl.Strengths, impl.Weaknesses)
	}
	if impl.CriteriaChecklist == nil {
		t.Fatal("criteria checklist missing")
	}
}

func TestParseSpecDirLegacyLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "bar-grouped")
	writeFile(t, filepath.Join(dir, "spec.md"), "# bar-grouped: Grouped Bar Chart\n\n## Description\nBars grouped by category.\n")
	writeFile(t, filepath.Join(dir, "metadata.yaml"), `
tags:
  plot_type: [bar]
implementations:
  seaborn:
    current:
      url: https://storage.googleapis.com/pyplots-data/plots/bar-grouped/seaborn/plot.png
      quality_score: 120
      verdict: REJECTED
`)
	writeFile(t, filepath.Join(dir, "implementations", "seaborn.py"), "import seaborn as sns\n")

	rec, err := ParseSpecDir(root, "bar-grouped")
	if err != nil {
		t.Fatalf("ParseSpecDir: %v", err)
	}
	if rec.Title != "Grouped Bar Chart" {
		t.Fatalf("title: got=%q", rec.Title)
	}
	if len(rec.Impls) != 1 {
		t.Fatalf("impl count: got=%d", len(rec.Impls))
	}
	impl := rec.Impls[0]
	if impl.URL == "" {
		t.Fatal("legacy current url not merged")
	}
	if impl.QualityScore != 100 {
		t.Fatalf("quality score must be capped at 100: got=%d", impl.QualityScore)
	}
	if impl.Verdict != "REJECTED" {
		t.Fatalf("verdict: got=%q", impl.Verdict)
	}
}

func TestParseSpecMarkdownTitleFallback(t *testing.T) {
	t.Parallel()
	rec := &SpecRecord{ID: "heat-map"}
	parseSpecMarkdown(rec, "# Heatmap without colon\n")
	if rec.Title != "Heatmap without colon" {
		t.Fatalf("title: got=%q", rec.Title)
	}

	rec = &SpecRecord{ID: "no-heading"}
	parseSpecMarkdown(rec, "just prose\n")
	if rec.Title != "no-heading" {
		t.Fatalf("title fallback to id: got=%q", rec.Title)
	}
}

func TestScanSpecIDsSkipsDotfilesAndFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	for _, d := range []string{"scatter-basic", "bar-grouped", ".git"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeFile(t, filepath.Join(root, "README.md"), "readme")

	ids, err := ScanSpecIDs(root)
	if err != nil {
		t.Fatalf("ScanSpecIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "bar-grouped" || ids[1] != "scatter-basic" {
		t.Fatalf("ids: got=%v", ids)
	}
}
