package content

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stored study resource.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ExamType    string    `json:"exam_type,omitempty"`
	ExamBoard   string    `json:"exam_board,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Topics      []string  `json:"topics"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url,omitempty"`
	Year        *int      `json:"year,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Question is a generated practice question.
type Question struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Marks      int    `json:"marks,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Page selects a window of search results. Page is 1-based.
type Page struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
	QuestionCount   = 5
)

// Normalize clamps p to valid bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}
