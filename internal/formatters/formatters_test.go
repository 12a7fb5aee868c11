package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"atsresume/internal/resume"
	"atsresume/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView(t *testing.T) types.ResultView {
	t.Helper()
	var r resume.GeneratedResume
	require.NoError(t, json.Unmarshal([]byte(`{
		"atsScore": 85,
		"header": {"name": "Jane Doe", "email": "jane@example.com"},
		"summary": "Backend engineer with 8 years of Go.",
		"experience": [{"title": "Staff Engineer", "company": "Acme", "duration": "2020-2024", "description": "Led the platform team."}],
		"skills": ["Go", "Kubernetes"],
		"projects": [],
		"pdfPath": "generated/jane.pdf"
	}`), &r))
	return types.NewResultView("jane.pdf", &r)
}

func TestResultTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleView(t), "text")
	require.NoError(t, err)

	assert.Contains(t, out, "Score: 85/100 (success)")
	assert.Contains(t, out, "Excellent! Your resume is highly ATS-optimized.")
	assert.Contains(t, out, "=== HEADER ===\nname: Jane Doe\nemail: jane@example.com\n")
	assert.Contains(t, out, "- Staff Engineer\n  Acme\n  2020-2024\n  Led the platform team.\n")
	assert.Contains(t, out, "- Go\n- Kubernetes\n")
	assert.NotContains(t, out, "PROJECTS")
	assert.Contains(t, out, "PDF: generated/jane.pdf")

	headerAt := strings.Index(out, "HEADER")
	summaryAt := strings.Index(out, "PROFESSIONAL SUMMARY")
	skillsAt := strings.Index(out, "SKILLS")
	assert.True(t, headerAt < summaryAt && summaryAt < skillsAt, "sections in display order")
}

func TestResultMarkdownFormatter(t *testing.T) {
	view := sampleView(t)
	out, err := GlobalRegistry.Format(&view, "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "# Your Optimized Resume")
	assert.Contains(t, out, "Based on \"jane.pdf\"")
	assert.Contains(t, out, "**Score:** 85/100")
	assert.Contains(t, out, "## Professional Summary\n\nBackend engineer with 8 years of Go.\n")
	assert.Contains(t, out, "- **Staff Engineer** · Acme · 2020-2024\n  Led the platform team.\n")
	assert.Contains(t, out, "**name:** Jane Doe")
}

func TestJSONFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleView(t), "json")
	require.NoError(t, err)

	var decoded types.ResultView
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 85, decoded.ATSScore)
	assert.Equal(t, resume.TierSuccess, decoded.Tier)
	require.Len(t, decoded.Sections, 4)
	assert.Equal(t, "keyvalue", decoded.Sections[0].Kind)
	assert.Equal(t, "list", decoded.Sections[2].Kind)
}

func TestFormatUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleView(t), "yaml")
	assert.Error(t, err)
}

func TestFormatterTypeMismatch(t *testing.T) {
	_, err := (&ResultTextFormatter{}).Format("nope")
	assert.Error(t, err)
	_, err = (&ResultMarkdownFormatter{}).Format((*types.ResultView)(nil))
	assert.Error(t, err)
}

func TestEmptyResult(t *testing.T) {
	view := types.NewResultView("", &resume.GeneratedResume{ATSScore: 40})
	out, err := GlobalRegistry.Format(view, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Consider further optimization to improve ATS compatibility.")
	assert.Contains(t, out, "No resume content was returned.")
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
