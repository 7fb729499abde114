package query

// term maps a canonical value to the lower-case phrases that select it.
// Slices of terms are ordered: the first entry with any matching phrase wins.
type term struct {
	canonical string
	phrases   []string
}

// IGCSE precedes GCSE and AS-Level precedes A-Level so the longer names are
// tried first.
var examTypes = []term{
	{"IGCSE", []string{"igcse", "igcses"}},
	{"GCSE", []string{"gcse", "gcses"}},
	{"AS-Level", []string{"as-level", "as level", "as-levels"}},
	{"A-Level", []string{"a-level", "a level", "a-levels", "a levels", "alevel", "alevels"}},
	{"IB", []string{"international baccalaureate", "ib"}},
	{"BTEC", []string{"btec"}},
}

// Edexcel precedes AQA: a query naming both resolves to Edexcel.
var examBoards = []term{
	{"Edexcel", []string{"pearson edexcel", "edexcel"}},
	{"AQA", []string{"aqa"}},
	{"OCR", []string{"ocr"}},
	{"WJEC", []string{"wjec", "eduqas"}},
	{"CCEA", []string{"ccea"}},
	{"Cambridge", []string{"cambridge", "cie", "caie"}},
}

var subjects = []term{
	{"Further Mathematics", []string{"further mathematics", "further maths", "further math"}},
	{"Mathematics", []string{"mathematics", "maths", "math"}},
	{"Biology", []string{"biology", "bio"}},
	{"Chemistry", []string{"chemistry", "chem"}},
	{"Physics", []string{"physics"}},
	{"Computer Science", []string{"computer science", "computing"}},
	{"Combined Science", []string{"combined science", "science"}},
	{"English Literature", []string{"english literature", "english lit"}},
	{"English Language", []string{"english language", "english lang", "english"}},
	{"History", []string{"history"}},
	{"Geography", []string{"geography", "geog"}},
	{"Economics", []string{"economics", "econ"}},
	{"Business", []string{"business studies", "business"}},
	{"Psychology", []string{"psychology", "psych"}},
	{"Sociology", []string{"sociology"}},
	{"Religious Studies", []string{"religious studies", "religious education"}},
	{"French", []string{"french"}},
	{"Spanish", []string{"spanish"}},
	{"German", []string{"german"}},
}

var requestTypes = []term{
	{string(RequestNotes), []string{"revision notes", "notes", "note", "summary", "summaries", "summarise", "summarize", "explanation", "explain", "overview"}},
	{string(RequestPastPapers), []string{"past papers", "past paper", "past exam", "past exams", "exam papers", "exam paper", "mark scheme", "mark schemes"}},
	{string(RequestPracticeQuestions), []string{"practice questions", "practice question", "exam questions", "exam question", "questions", "question", "quiz", "test me", "mock"}},
	{string(RequestFlashcards), []string{"flashcards", "flash cards", "flashcard"}},
}

var topicConnectors = []string{"about", "on", "regarding", "topic of", "specifically"}

const topicPunctuation = ".,;:?!()[]\"\n"

var topicStopWords = []string{"please", "for", "with", "using", "from"}

// Canonical returns the vocabulary value for a free-form value of the named
// field (exam_type, exam_board, subject, request_type). It is used to bring
// language-model answers into the same vocabulary as pattern matching.
func Canonical(field, value string) (string, bool) {
	var list []term
	switch field {
	case "exam_type":
		list = examTypes
	case "exam_board":
		list = examBoards
	case "subject":
		list = subjects
	case "request_type":
		list = requestTypes
		if RequestType(normalize(value)) == RequestGeneral {
			return string(RequestGeneral), true
		}
	default:
		return "", false
	}

	v := normalize(value)
	if v == "" {
		return "", false
	}
	for _, t := range list {
		if normalize(t.canonical) == v {
			return t.canonical, true
		}
		for _, p := range t.phrases {
			if p == v {
				return t.canonical, true
			}
		}
	}
	if c, _, ok := firstTerm(list, v); ok {
		return c, true
	}
	return "", false
}

func canonicals(list []term) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.canonical
	}
	return out
}
