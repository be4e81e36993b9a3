package curriculum

import "testing"

func TestCatalogIsComplete(t *testing.T) {
	cats := Categories()
	if len(cats) != 4 {
		t.Fatalf("got %d categories, want 4", len(cats))
	}

	total := 0
	seen := make(map[string]bool)
	for _, cat := range cats {
		if cat.ID == "" || cat.Title == "" || cat.Icon == "" {
			t.Errorf("category %q missing fields", cat.ID)
		}
		if len(cat.Lessons) == 0 {
			t.Errorf("category %q has no lessons", cat.ID)
		}
		for _, lesson := range cat.Lessons {
			if seen[lesson.ID] {
				t.Errorf("duplicate lesson id %q", lesson.ID)
			}
			seen[lesson.ID] = true
			if lesson.Title == "" || lesson.QueryTopic == "" {
				t.Errorf("lesson %q missing title or query topic", lesson.ID)
			}
			total++
		}
	}
	if total != 15 {
		t.Errorf("got %d lessons, want 15", total)
	}
}

func TestFindLesson(t *testing.T) {
	lesson, ok := FindLesson("dl_2")
	if !ok {
		t.Fatal("dl_2 not found")
	}
	if lesson.QueryTopic != "Ordering coffee and paying at a cafe" {
		t.Errorf("QueryTopic = %q", lesson.QueryTopic)
	}

	if _, ok := FindLesson("nope"); ok {
		t.Error("unknown id should not be found")
	}
}

func TestNextLesson(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		wantID string
		wantOK bool
	}{
		{name: "middle of category", id: "dl_1", wantID: "dl_2", wantOK: true},
		{name: "last in category has no successor", id: "dl_4", wantOK: false},
		{name: "no wrap across categories", id: "ie_3", wantOK: false},
		{name: "unknown lesson", id: "nope", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextLesson(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("NextLesson(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && next.ID != tt.wantID {
				t.Errorf("NextLesson(%q) = %q, want %q", tt.id, next.ID, tt.wantID)
			}
		})
	}
}
