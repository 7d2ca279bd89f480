package model

import "testing"

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "in_progress", "completed", "delayed", "cancelled"} {
		s, ok := ParseStatus(valid)
		if !ok || string(s) != valid {
			t.Errorf("ParseStatus(%q) = %q, %v", valid, s, ok)
		}
	}
	for _, invalid := range []string{"", "done", "IN_PROGRESS", "in progress"} {
		if _, ok := ParseStatus(invalid); ok {
			t.Errorf("ParseStatus(%q) should be rejected", invalid)
		}
	}
}

func TestParseDocumentType(t *testing.T) {
	for _, valid := range []string{"ordinance", "resolution"} {
		d, ok := ParseDocumentType(valid)
		if !ok || string(d) != valid {
			t.Errorf("ParseDocumentType(%q) = %q, %v", valid, d, ok)
		}
	}
	if _, ok := ParseDocumentType("memo"); ok {
		t.Error("ParseDocumentType(\"memo\") should be rejected")
	}
}

func TestPriorityRank(t *testing.T) {
	order := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityEmergency}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%q should outrank %q", order[i], order[i-1])
		}
	}
	if _, ok := ParsePriority("whenever"); ok {
		t.Error("ParsePriority(\"whenever\") should be rejected")
	}
}

func TestDocumentRef(t *testing.T) {
	m := Milestone{DocumentID: 10, DocumentType: DocumentTypeOrdinance}
	ref := m.Document()
	if ref.ID != 10 || ref.Type != DocumentTypeOrdinance {
		t.Fatalf("Document() = %+v", ref)
	}
}
