package grading

import "testing"

func TestGradeCoverageRule(t *testing.T) {
	cases := []struct {
		reference string
		answer    string
		correct   bool
	}{
		{"The cat sat", "the CAT sat sat", true},
		{"The cat sat", "the cat", false},
		{"Hi! Hi!", "hi", false},
		{"Hi! Hi!", "hi hi", true},
		{"The cat sat.", "sat cat the", true},
		{"Well-known facts", "wellknown facts", true},
		{"", "anything", true},
	}
	for _, tc := range cases {
		v := Grade(tc.reference, tc.answer)
		if v.Correct != tc.correct {
			t.Fatalf("Grade(%q, %q) = %v, want %v", tc.reference, tc.answer, v.Correct, tc.correct)
		}
		if v.Input != tc.answer {
			t.Fatalf("expected raw input to be kept, got %q", v.Input)
		}
	}
}

func TestGradeReportsMissingWords(t *testing.T) {
	v := Grade("The cat sat on the mat", "the cat sat mat")
	if v.Correct {
		t.Fatalf("expected incorrect verdict")
	}
	if len(v.Missing) != 2 || v.Missing[0] != "on" || v.Missing[1] != "the" {
		t.Fatalf("unexpected missing words: %v", v.Missing)
	}
}

func TestCount(t *testing.T) {
	counts := Count("  A a, B!  ")
	if counts["a"] != 2 || counts["b"] != 1 || len(counts) != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestGradeSuggestsMisspellings(t *testing.T) {
	v := Grade("A hard environment test", "a hart enviroment test")
	if v.Correct {
		t.Fatalf("expected incorrect verdict")
	}
	if len(v.Misspelled) != 2 {
		t.Fatalf("expected 2 misspellings, got %+v", v.Misspelled)
	}
	if v.Misspelled[0] != (Misspelling{Want: "environment", Got: "enviroment"}) || v.Misspelled[1] != (Misspelling{Want: "hard", Got: "hart"}) {
		t.Fatalf("unexpected misspellings: %+v", v.Misspelled)
	}

	v = Grade("the cat", "the dog")
	if len(v.Misspelled) != 0 {
		t.Fatalf("expected unrelated words not to match, got %+v", v.Misspelled)
	}
	if v = Grade("the cat", "the cat"); v.Misspelled != nil {
		t.Fatalf("expected no misspellings for correct answer")
	}
}
