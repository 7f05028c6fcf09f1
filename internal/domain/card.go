package domain

// Card is a single entry read from a question sheet. Answer is empty when the
// sheet only poses the question; Subject and Difficulty are zero when the sheet
// does not set them.
type Card struct {
	Subject    Subject
	Question   string
	Answer     string
	Context    string
	Difficulty int
}
