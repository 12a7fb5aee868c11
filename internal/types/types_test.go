package types

import (
	"testing"

	"atsresume/internal/resume"
)

func TestNewResultView(t *testing.T) {
	r := &resume.GeneratedResume{
		ATSScore:       112,
		Summary:        []byte(`"  "`),
		Education:      []byte(`[{"title":"BSc","details":"Honours","gpa":"3.9"}, null, "Exchange year"]`),
		Certifications: []byte(`{"AWS": "SAA", "CKA": 2023}`),
		PDFPath:        "p.pdf",
	}

	view := NewResultView("cv.pdf", r)

	if view.ATSScore != 100 {
		t.Errorf("ATSScore = %d, want clamped 100", view.ATSScore)
	}
	if view.Tier != resume.TierSuccess {
		t.Errorf("Tier = %s, want success", view.Tier)
	}
	if len(view.Sections) != 2 {
		t.Fatalf("got %d sections, want 2 (blank summary dropped)", len(view.Sections))
	}

	edu := view.Sections[0]
	if edu.Key != "education" || len(edu.Entries) != 2 {
		t.Fatalf("education = %+v", edu)
	}
	if edu.Entries[0].Title != "BSc" || edu.Entries[0].Details != "Honours" || edu.Entries[0].IsText() {
		t.Errorf("structured entry = %+v", edu.Entries[0])
	}
	if !edu.Entries[1].IsText() || edu.Entries[1].Text != "Exchange year" {
		t.Errorf("text entry = %+v", edu.Entries[1])
	}

	certs := view.Sections[1]
	want := []PairView{{"AWS", "SAA"}, {"CKA", "2023"}}
	if len(certs.Pairs) != len(want) {
		t.Fatalf("pairs = %+v", certs.Pairs)
	}
	for i := range want {
		if certs.Pairs[i] != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, certs.Pairs[i], want[i])
		}
	}
}
