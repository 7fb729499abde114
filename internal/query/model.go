package query

// RequestType is the canonical category of what the user asked for.
type RequestType string

const (
	RequestNotes             RequestType = "notes"
	RequestPastPapers        RequestType = "past_papers"
	RequestPracticeQuestions RequestType = "practice_questions"
	RequestFlashcards        RequestType = "flashcards"
	RequestGeneral           RequestType = "general"
)

// Known reports whether r is one of the canonical request types.
func (r RequestType) Known() bool {
	switch r {
	case RequestNotes, RequestPastPapers, RequestPracticeQuestions, RequestFlashcards, RequestGeneral:
		return true
	}
	return false
}

// StructuredQuery is the five-field form of a free-text request.
// An empty string means the field is absent.
type StructuredQuery struct {
	ExamType    string      `json:"exam_type,omitempty"`
	ExamBoard   string      `json:"exam_board,omitempty"`
	Subject     string      `json:"subject,omitempty"`
	Topic       string      `json:"topic,omitempty"`
	RequestType RequestType `json:"request_type,omitempty"`
}

// Complete reports whether all five fields are present.
func (q StructuredQuery) Complete() bool {
	return len(q.Missing()) == 0
}

// Missing lists the JSON names of absent fields, in field order.
func (q StructuredQuery) Missing() []string {
	var missing []string
	if q.ExamType == "" {
		missing = append(missing, "exam_type")
	}
	if q.ExamBoard == "" {
		missing = append(missing, "exam_board")
	}
	if q.Subject == "" {
		missing = append(missing, "subject")
	}
	if q.Topic == "" {
		missing = append(missing, "topic")
	}
	if q.RequestType == "" {
		missing = append(missing, "request_type")
	}
	return missing
}

// Preferences are the user's stored defaults used to fill gaps.
type Preferences struct {
	ExamType  string   `json:"exam_type,omitempty"`
	ExamBoard string   `json:"exam_board,omitempty"`
	Subjects  []string `json:"subjects,omitempty"`
}
