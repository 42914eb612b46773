package pipeline

// StructuredSummary is the canonical study artifact produced from one
// lecture transcript. After ValidateSummary it always carries exactly 3
// overview paragraphs and 4-8 de-duplicated items per bulleted field.
type StructuredSummary struct {
	OverviewParagraphs []string `json:"overview_paragraphs"`
	KeyDefinitions     []string `json:"key_definitions"`
	CoreConcepts       []string `json:"core_concepts"`
	ImportantExamples  []string `json:"important_examples"`
	ExamRevisionPoints []string `json:"exam_revision_points"`
}

// IsEmpty reports whether no field carries any content.
func (s StructuredSummary) IsEmpty() bool {
	return len(s.OverviewParagraphs) == 0 &&
		len(s.KeyDefinitions) == 0 &&
		len(s.CoreConcepts) == 0 &&
		len(s.ImportantExamples) == 0 &&
		len(s.ExamRevisionPoints) == 0
}

// Fields returns the four bulleted fields in a fixed order.
func (s StructuredSummary) Fields() [][]string {
	return [][]string{
		s.CoreConcepts,
		s.KeyDefinitions,
		s.ImportantExamples,
		s.ExamRevisionPoints,
	}
}

// MCQItem is a single generated multiple-choice question. Options always
// holds exactly 4 entries and CorrectIndex stays within [0,3].
type MCQItem struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// ChatMessage is one turn of the grounded chat conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
