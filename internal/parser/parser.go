// Package parser reads question sheets: markdown files made of Q:/A:/C: blocks.
//
//	S: physics
//	Q: What is Newton's second law?
//	D: 2
//	---
//	Q: Derive the period of a pendulum.
//	A: T = 2π√(L/g)
//	C: small-angle approximation
//
// "S:" sets the subject for every following card in the file and "D:" rates
// the current card's difficulty from 1 to 5; it must come after the card's "Q:". Cards are separated by "---" or by the next "Q:".
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conorfennell/studydesk/internal/domain"
)

const (
	questionPrefix   = "Q:"
	answerPrefix     = "A:"
	contextPrefix    = "C:"
	subjectPrefix    = "S:"
	difficultyPrefix = "D:"
	separator        = "---"
)

type field int

const (
	fieldNone field = iota
	fieldQuestion
	fieldAnswer
	fieldContext
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

type sheet struct {
	cards   []domain.Card
	subject domain.Subject
	card    domain.Card
	field   field
	block   []string
}

// flushBlock stores the lines gathered so far into the field being read.
func (s *sheet) flushBlock() {
	if len(s.block) == 0 {
		return
	}
	content := strings.TrimSpace(strings.Join(s.block, "\n"))
	switch s.field {
	case fieldQuestion:
		s.card.Question = content
	case fieldAnswer:
		s.card.Answer = content
	case fieldContext:
		s.card.Context = content
	}
	s.block = nil
}

func (s *sheet) finishCard() {
	s.flushBlock()
	if s.card.Question != "" {
		if s.card.Subject == "" {
			s.card.Subject = s.subject
		}
		s.cards = append(s.cards, s.card)
	}
	s.card = domain.Card{}
	s.field = fieldNone
}

func (s *sheet) start(f field, rest string) {
	s.flushBlock()
	s.field = f
	s.block = append(s.block, rest)
}

// Parse reads from an io.Reader and extracts all cards.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	s := &sheet{}
	lineNo := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		switch {
		case strings.TrimSpace(line) == separator:
			s.finishCard()
		case strings.HasPrefix(line, subjectPrefix):
			subject, err := domain.ParseSubject(strings.TrimSpace(line[len(subjectPrefix):]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			s.finishCard()
			s.subject = subject
		case strings.HasPrefix(line, difficultyPrefix):
			d, err := strconv.Atoi(strings.TrimSpace(line[len(difficultyPrefix):]))
			if err != nil || d < 1 || d > 5 {
				return nil, fmt.Errorf("line %d: difficulty must be 1-5, got %q", lineNo, line)
			}
			s.flushBlock()
			if s.card.Question == "" {
				return nil, fmt.Errorf("line %d: difficulty must follow a question", lineNo)
			}
			s.field = fieldNone
			s.card.Difficulty = d
		case strings.HasPrefix(line, questionPrefix):
			// A new question always starts a new card.
			s.finishCard()
			s.start(fieldQuestion, line[len(questionPrefix):])
		case strings.HasPrefix(line, answerPrefix):
			s.start(fieldAnswer, line[len(answerPrefix):])
		case strings.HasPrefix(line, contextPrefix):
			s.start(fieldContext, line[len(contextPrefix):])
		case s.field != fieldNone:
			s.block = append(s.block, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s.finishCard()

	return s.cards, nil
}
