// Package resume holds the résumé service data model and the client for the
// service's generate and download operations.
package resume

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// SectionKey names a section of a generated résumé.
type SectionKey string

const (
	SectionHeader         SectionKey = "header"
	SectionSummary        SectionKey = "summary"
	SectionExperience     SectionKey = "experience"
	SectionEducation      SectionKey = "education"
	SectionSkills         SectionKey = "skills"
	SectionProjects       SectionKey = "projects"
	SectionAchievements   SectionKey = "achievements"
	SectionCertifications SectionKey = "certifications"
)

// SectionOrder is the fixed display order of résumé sections.
var SectionOrder = []SectionKey{
	SectionHeader,
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionAchievements,
	SectionCertifications,
}

var sectionTitles = map[SectionKey]string{
	SectionHeader:         "Header",
	SectionSummary:        "Professional Summary",
	SectionExperience:     "Experience",
	SectionEducation:      "Education",
	SectionSkills:         "Skills",
	SectionProjects:       "Projects",
	SectionAchievements:   "Achievements",
	SectionCertifications: "Certifications",
}

// Title returns the display heading for the section.
func (k SectionKey) Title() string {
	if t, ok := sectionTitles[k]; ok {
		return t
	}
	return string(k)
}

// Section is one present section ready for display.
type Section struct {
	Key     SectionKey
	Title   string
	Content Content
}

// GeneratedResume is the service's answer to a generate request. Section
// fields keep the raw JSON; use Sections to get typed content.
type GeneratedResume struct {
	ATSScore       int             `json:"atsScore"`
	Header         json.RawMessage `json:"header,omitempty"`
	Summary        json.RawMessage `json:"summary,omitempty"`
	Education      json.RawMessage `json:"education,omitempty"`
	Skills         json.RawMessage `json:"skills,omitempty"`
	Experience     json.RawMessage `json:"experience,omitempty"`
	Projects       json.RawMessage `json:"projects,omitempty"`
	Achievements   json.RawMessage `json:"achievements,omitempty"`
	Certifications json.RawMessage `json:"certifications,omitempty"`
	PDFPath        string          `json:"pdfPath"`
}

// UnmarshalJSON accepts fractional scores, rounds them and clamps them to
// 0-100.
func (r *GeneratedResume) UnmarshalJSON(data []byte) error {
	type alias GeneratedResume
	aux := struct {
		ATSScore float64 `json:"atsScore"`
		*alias
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ATSScore = int(math.Round(math.Max(0, math.Min(100, aux.ATSScore))))
	return nil
}

func (r *GeneratedResume) raw(key SectionKey) json.RawMessage {
	switch key {
	case SectionHeader:
		return r.Header
	case SectionSummary:
		return r.Summary
	case SectionExperience:
		return r.Experience
	case SectionEducation:
		return r.Education
	case SectionSkills:
		return r.Skills
	case SectionProjects:
		return r.Projects
	case SectionAchievements:
		return r.Achievements
	case SectionCertifications:
		return r.Certifications
	}
	return nil
}

// Sections returns the present sections in display order. A section whose
// content is absent, empty or undecodable is left out.
func (r *GeneratedResume) Sections() []Section {
	if r == nil {
		return nil
	}

	var out []Section
	for _, key := range SectionOrder {
		content, err := ParseContent(r.raw(key))
		if err != nil || content == nil {
			continue
		}
		out = append(out, Section{Key: key, Title: key.Title(), Content: content})
	}
	return out
}

// Score returns the ATS score clamped to 0-100.
func (r *GeneratedResume) Score() int {
	switch {
	case r.ATSScore < 0:
		return 0
	case r.ATSScore > 100:
		return 100
	default:
		return r.ATSScore
	}
}

// Tier is the qualitative band of an ATS score.
type Tier string

const (
	TierSuccess Tier = "success"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// ScoreTier pairs a band with the message shown next to the score.
type ScoreTier struct {
	Tier    Tier
	Message string
}

// TierFor classifies a score: 80 and above is success, 60 and above warning.
func TierFor(score int) ScoreTier {
	switch {
	case score >= 80:
		return ScoreTier{TierSuccess, "Excellent! Your resume is highly ATS-optimized."}
	case score >= 60:
		return ScoreTier{TierWarning, "Good score! Your resume should pass most ATS systems."}
	default:
		return ScoreTier{TierDanger, "Consider further optimization to improve ATS compatibility."}
	}
}

// Artifact is a downloaded PDF held in memory until it is saved.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ArtifactFilename synthesizes the local name for a downloaded PDF.
func ArtifactFilename(now time.Time) string {
	return "optimized-resume-" + strconv.FormatInt(now.UnixMilli(), 10) + ".pdf"
}
