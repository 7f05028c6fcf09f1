package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSubject(t *testing.T) {
	testCases := []struct {
		code        string
		expectErr   bool
		displayName string
	}{
		{"math", false, "数学"},
		{"physics", false, "物理"},
		{"politics", false, "政治"},
		{"alchemy", true, ""},
		{"", true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			s, err := ParseSubject(tc.code)
			if tc.expectErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Expected a ValidationError for %q, got %v", tc.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.DisplayName() != tc.displayName {
				t.Errorf("Expected display name %q, got %q", tc.displayName, s.DisplayName())
			}
			if !strings.Contains(s.Persona(), tc.displayName) {
				t.Errorf("Expected persona to mention %q, got %q", tc.displayName, s.Persona())
			}
		})
	}
}

func TestSubjectCycling(t *testing.T) {
	if Math.Prev() != Politics {
		t.Errorf("Expected math.Prev() to wrap to politics, got %s", Math.Prev())
	}
	if Politics.Next() != Math {
		t.Errorf("Expected politics.Next() to wrap to math, got %s", Politics.Next())
	}
	s := Math
	for range Subjects {
		s = s.Next()
	}
	if s != Math {
		t.Errorf("Expected a full cycle to return to math, got %s", s)
	}
}

func TestQuestionRecordValidate(t *testing.T) {
	valid := QuestionRecord{Subject: Math, QuestionText: "2+2=?", Difficulty: DefaultDifficulty}

	t.Run("valid record", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Errorf("Expected record to be valid, got %v", err)
		}
	})

	t.Run("difficulty out of range", func(t *testing.T) {
		r := valid
		r.Difficulty = 6
		if err := r.Validate(); err == nil {
			t.Error("Expected difficulty 6 to be rejected")
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		r := valid
		r.Subject = "alchemy"
		if err := r.Validate(); err == nil {
			t.Error("Expected unknown subject to be rejected")
		}
	})

	t.Run("missing question", func(t *testing.T) {
		r := valid
		r.QuestionText = ""
		if err := r.Validate(); err == nil {
			t.Error("Expected empty question to be rejected")
		}
	})
}

func TestDailyStatAccuracy(t *testing.T) {
	if (DailyStat{}).Accuracy() != 0 {
		t.Error("Expected zero accuracy for an empty day")
	}
	if got := (DailyStat{QuestionsCount: 4, CorrectCount: 3}).Accuracy(); got != 0.75 {
		t.Errorf("Expected accuracy 0.75, got %.2f", got)
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&StorageError{Op: "record answer", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("Expected StorageError to unwrap to its cause")
	}
	if !IsStorage(err) {
		t.Error("Expected IsStorage to recognise a StorageError")
	}
}
