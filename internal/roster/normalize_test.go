package roster

import (
	"context"
	"testing"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří", "Jiri"},
		{"Novák", "Novak"},
		{"Svobodová", "Svobodova"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := RemoveDiacritics(tt.input); got != tt.expected {
			t.Errorf("RemoveDiacritics(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"  Jan   Novák  ", "jan novak"},
		{"PETRA SVOBODOVÁ", "petra svobodova"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestFindByName(t *testing.T) {
	students := map[string]Student{
		"stu-1": {ID: "stu-1", Name: "Jan Novák"},
		"stu-2": {ID: "stu-2", Name: "Petra Svobodová"},
	}

	t.Run("NormalizedMatch", func(t *testing.T) {
		s := FindByName(students, "jan-novak")
		if s == nil || s.ID != "stu-1" {
			t.Errorf("Expected stu-1, got %+v", s)
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		if s := FindByName(students, "someone else"); s != nil {
			t.Errorf("Expected nil, got %+v", s)
		}
	})

	t.Run("AmbiguousName", func(t *testing.T) {
		dup := map[string]Student{
			"stu-1": {ID: "stu-1", Name: "Jan Novák"},
			"stu-3": {ID: "stu-3", Name: "Jan Novak"},
		}
		if s := FindByName(dup, "Jan Novák"); s != nil {
			t.Errorf("Ambiguous name must not resolve, got %+v", s)
		}
	})
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	p.AddStudent(Student{ID: "stu-1", Name: "Jan Novák", RollNumber: "R001"})
	p.AddStudent(Student{ID: "stu-2", Name: "Petra Svobodová", RollNumber: "R002"})
	p.Enroll("cs101", "stu-1")
	p.Enroll("cs101", "stu-2")
	p.Associate("fac-1", "cs101")

	ctx := context.Background()

	t.Run("GetEnrolled", func(t *testing.T) {
		enrolled, err := p.GetEnrolled(ctx, "cs101")
		if err != nil {
			t.Fatalf("Failed: %v", err)
		}
		if len(enrolled) != 2 {
			t.Errorf("Expected 2 enrolled, got %d", len(enrolled))
		}
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		if _, err := p.GetEnrolled(ctx, "nope"); err == nil {
			t.Error("Expected error for unknown course")
		}
	})

	t.Run("GetStudent", func(t *testing.T) {
		s, err := p.GetStudent(ctx, "stu-1")
		if err != nil {
			t.Fatalf("Failed: %v", err)
		}
		if s == nil || s.RollNumber != "R001" {
			t.Errorf("Unexpected student: %+v", s)
		}

		missing, _ := p.GetStudent(ctx, "stu-99")
		if missing != nil {
			t.Errorf("Expected nil for missing student, got %+v", missing)
		}
	})

	t.Run("CoursesForActor", func(t *testing.T) {
		courses, err := p.CoursesForActor(ctx, "fac-1")
		if err != nil {
			t.Fatalf("Failed: %v", err)
		}
		if len(courses) != 1 || courses[0] != "cs101" {
			t.Errorf("Unexpected courses: %v", courses)
		}
	})
}
