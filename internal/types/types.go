package types

import (
	"atsresume/internal/resume"
)

// ResultView is the presentation model of a generated résumé, shared by the
// CLI formatters and the web UI templates.
type ResultView struct {
	OriginalFileName string        `json:"originalFileName"`
	ATSScore         int           `json:"atsScore"`
	Tier             resume.Tier   `json:"tier"`
	TierMessage      string        `json:"tierMessage"`
	PDFPath          string        `json:"pdfPath"`
	Sections         []SectionView `json:"sections"`
}

// SectionView is one present section. Exactly one of Text, Entries or Pairs
// is populated, according to Kind.
type SectionView struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Entries []EntryView `json:"entries,omitempty"`
	Pairs   []PairView  `json:"pairs,omitempty"`
}

// EntryView is one list item.
type EntryView struct {
	Text        string `json:"text,omitempty"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	Details     string `json:"details,omitempty"`
}

// PairView is one labelled value.
type PairView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewResultView builds the view for r.
func NewResultView(originalFileName string, r *resume.GeneratedResume) ResultView {
	score := r.Score()
	tier := resume.TierFor(score)

	view := ResultView{
		OriginalFileName: originalFileName,
		ATSScore:         score,
		Tier:             tier.Tier,
		TierMessage:      tier.Message,
		PDFPath:          r.PDFPath,
		Sections:         []SectionView{},
	}
	for _, s := range r.Sections() {
		view.Sections = append(view.Sections, newSectionView(s))
	}
	return view
}

func newSectionView(s resume.Section) SectionView {
	sv := SectionView{Key: string(s.Key), Title: s.Title, Kind: s.Content.Kind().String()}

	switch c := s.Content.(type) {
	case resume.TextContent:
		sv.Text = c.Text
	case resume.ListContent:
		for _, e := range c.Entries {
			sv.Entries = append(sv.Entries, EntryView{
				Text:        e.Text,
				Title:       e.Title,
				Company:     e.Company,
				Duration:    e.Duration,
				Description: e.Description,
				Details:     e.Details,
			})
		}
	case resume.KeyValueContent:
		for _, p := range c.Pairs {
			sv.Pairs = append(sv.Pairs, PairView{Key: p.Key, Value: p.Value})
		}
	}
	return sv
}

// IsText reports whether the entry is a plain string item.
func (e EntryView) IsText() bool {
	return e.Text != ""
}
