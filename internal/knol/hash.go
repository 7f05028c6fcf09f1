package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studydesk/internal/domain"
)

// Normalize lowercases and trims text and unifies its line endings.
func Normalize(part string) string {
	p := strings.ToLower(part)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return strings.TrimSpace(p)
}

// Fingerprint identifies a question within a subject regardless of its answer,
// so the same question asked twice maps to the same value.
func Fingerprint(subject domain.Subject, question string) string {
	return sum(string(subject) + "\n" + Normalize(question))
}

func sum(s string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}
