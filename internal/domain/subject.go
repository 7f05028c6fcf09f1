package domain

import "fmt"

// Subject is one of the fixed school-curriculum categories.
type Subject string

const (
	Math      Subject = "math"
	Physics   Subject = "physics"
	Chemistry Subject = "chemistry"
	Biology   Subject = "biology"
	Chinese   Subject = "chinese"
	English   Subject = "english"
	History   Subject = "history"
	Geography Subject = "geography"
	Politics  Subject = "politics"
)

// Subjects lists every subject in display order.
var Subjects = []Subject{Math, Physics, Chemistry, Biology, Chinese, English, History, Geography, Politics}

var displayNames = map[Subject]string{
	Math:      "数学",
	Physics:   "物理",
	Chemistry: "化学",
	Biology:   "生物",
	Chinese:   "语文",
	English:   "英语",
	History:   "历史",
	Geography: "地理",
	Politics:  "政治",
}

// ParseSubject turns a subject code into a Subject.
func ParseSubject(code string) (Subject, error) {
	s := Subject(code)
	if _, ok := displayNames[s]; !ok {
		return "", &ValidationError{Field: "subject", Reason: fmt.Sprintf("unknown subject %q", code)}
	}
	return s, nil
}

// Valid reports whether s is one of the known subjects.
func (s Subject) Valid() bool {
	_, ok := displayNames[s]
	return ok
}

// DisplayName returns the name shown to the student, e.g. "数学" for math.
func (s Subject) DisplayName() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return string(s)
}

// Persona is the system instruction sent to the chat model for this subject.
func (s Subject) Persona() string {
	return fmt.Sprintf(
		"你是一位经验丰富、耐心细致的中学%s老师。请用清晰易懂的语言讲解学生的问题，"+
			"先给出思路，再分步骤推导，最后总结关键知识点。",
		s.DisplayName(),
	)
}

// Next returns the subject after s, wrapping around.
func (s Subject) Next() Subject {
	return Subjects[(s.index()+1)%len(Subjects)]
}

// Prev returns the subject before s, wrapping around.
func (s Subject) Prev() Subject {
	return Subjects[(s.index()+len(Subjects)-1)%len(Subjects)]
}

func (s Subject) index() int {
	for i, candidate := range Subjects {
		if candidate == s {
			return i
		}
	}
	return 0
}
