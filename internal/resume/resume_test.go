package resume

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsOmitEmptyAndKeepOrder(t *testing.T) {
	body := `{
		"atsScore": 85,
		"certifications": ["CKA"],
		"summary": "Backend engineer with 8 years of Go.",
		"experience": [],
		"header": {"name": "Jane Doe"},
		"skills": null,
		"pdfPath": "out/jane.pdf"
	}`

	var r GeneratedResume
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	sections := r.Sections()
	var keys []SectionKey
	for _, s := range sections {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []SectionKey{SectionHeader, SectionSummary, SectionCertifications}, keys)
	assert.Equal(t, "Professional Summary", sections[1].Title)
	assert.Equal(t, 85, r.Score())
	assert.Equal(t, TierSuccess, TierFor(r.Score()).Tier)
	assert.Equal(t, "out/jane.pdf", r.PDFPath)
}

func TestSectionsNilResume(t *testing.T) {
	var r *GeneratedResume
	assert.Nil(t, r.Sections())
}

func TestUnmarshalScore(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`79.6`, 80},
		{`79.4`, 79},
		{`1e20`, 100},
		{`-1e20`, 0},
		{`100.4`, 100},
		{`-3`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var r GeneratedResume
			require.NoError(t, json.Unmarshal([]byte(`{"atsScore": `+tt.raw+`}`), &r))
			assert.Equal(t, tt.want, r.ATSScore)
			assert.Equal(t, tt.want, r.Score())
		})
	}
}

func TestScoreClamped(t *testing.T) {
	tests := []struct {
		raw  int
		want int
	}{
		{-5, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{130, 100},
	}
	for _, tt := range tests {
		r := GeneratedResume{ATSScore: tt.raw}
		assert.Equal(t, tt.want, r.Score(), "score %d", tt.raw)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score   int
		tier    Tier
		message string
	}{
		{100, TierSuccess, "Excellent! Your resume is highly ATS-optimized."},
		{80, TierSuccess, "Excellent! Your resume is highly ATS-optimized."},
		{79, TierWarning, "Good score! Your resume should pass most ATS systems."},
		{60, TierWarning, "Good score! Your resume should pass most ATS systems."},
		{59, TierDanger, "Consider further optimization to improve ATS compatibility."},
		{0, TierDanger, "Consider further optimization to improve ATS compatibility."},
	}

	for _, tt := range tests {
		got := TierFor(tt.score)
		if got.Tier != tt.tier || got.Message != tt.message {
			t.Errorf("TierFor(%d) = %+v, want %s / %q", tt.score, got, tt.tier, tt.message)
		}
	}
}

func TestArtifactFilename(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	assert.Equal(t, "optimized-resume-1718000000123.pdf", ArtifactFilename(now))
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"minimal", `{"atsScore": 70}`, false},
		{"full", `{"atsScore": 70, "summary": "x", "experience": [{"title": "a"}], "pdfPath": "a.pdf"}`, false},
		{"missing score", `{"summary": "x"}`, true},
		{"score as string", `{"atsScore": "high"}`, true},
		{"section as number", `{"atsScore": 1, "skills": 5}`, true},
		{"not an object", `[1,2,3]`, true},
		{"not json", `<html>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponse([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
