package parser

import (
	"strings"
	"testing"

	"github.com/conorfennell/studydesk/internal/domain"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedQ     string
		expectedA     string
		expectedC     string
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the derivative of x^2?\nA: 2x",
			expectedCards: 1,
			expectedQ:     "What is the derivative of x^2?",
			expectedA:     "2x",
		},
		{
			name:          "Question only",
			input:         "Q: Why is the sky blue?",
			expectedCards: 1,
			expectedQ:     "Why is the sky blue?",
		},
		{
			name:          "Simple Q, A, and C",
			input:         "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expectedCards: 1,
			expectedQ:     "What is 1+1?",
			expectedA:     "2",
			expectedC:     "Basic arithmetic",
		},
		{
			name: "Multiline Answer",
			input: `
Q: Name the noble gases of the first three periods.
A: Helium
Neon
Argon
`,
			expectedCards: 1,
			expectedQ:     "Name the noble gases of the first three periods.",
			expectedA:     "Helium\nNeon\nArgon",
		},
		{
			name: "Two Cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name:          "Separated cards",
			input:         "Q: One\n---\nQ: Two\n---\n",
			expectedCards: 2,
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expectedQ:     "Question",
			expectedA:     "Answer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}

			if tc.expectedCards == 1 {
				card := cards[0]
				if card.Question != tc.expectedQ {
					t.Errorf("Expected Question to be '%s', but got '%s'", tc.expectedQ, card.Question)
				}
				if card.Answer != tc.expectedA {
					t.Errorf("Expected Answer to be '%s', but got '%s'", tc.expectedA, card.Answer)
				}
				if card.Context != tc.expectedC {
					t.Errorf("Expected Context to be '%s', but got '%s'", tc.expectedC, card.Context)
				}
			}
		})
	}
}

func TestParseSubjectAndDifficulty(t *testing.T) {
	input := `
Q: Untagged question
S: physics
Q: What is inertia?
D: 2
A: Resistance to changes in motion.
---
S: chemistry
Q: Balance H2 + O2 -> H2O
D: 4
`
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("Expected 3 cards, but got %d", len(cards))
	}

	expected := []struct {
		subject    domain.Subject
		difficulty int
	}{
		{"", 0},
		{domain.Physics, 2},
		{domain.Chemistry, 4},
	}
	for i, want := range expected {
		if cards[i].Subject != want.subject || cards[i].Difficulty != want.difficulty {
			t.Errorf("Card %d: expected subject %q difficulty %d, got %q %d",
				i, want.subject, want.difficulty, cards[i].Subject, cards[i].Difficulty)
		}
	}
	if cards[1].Answer != "Resistance to changes in motion." {
		t.Errorf("Expected answer after difficulty line, got %q", cards[1].Answer)
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"unknown subject", "S: alchemy\nQ: lead to gold?"},
		{"difficulty out of range", "Q: hard\nD: 9"},
		{"difficulty before question", "D: 5\nQ: hard one"},
		{"difficulty after separator", "Q: one\n---\nD: 2\nQ: two"},
		{"difficulty not a number", "Q: hard\nD: very"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.input)); err == nil {
				t.Error("Expected an error, got nil")
			}
		})
	}
}
