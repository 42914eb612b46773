package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studysense/studysense/server/pipeline"
)

// promptExcerptChars caps transcript text embedded into a prompt.
const promptExcerptChars = 26000

// synthesisExcerptChars caps the transcript excerpt carried into the
// synthesis stage alongside the reduced notes.
const synthesisExcerptChars = 9000

func trimForPrompt(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "\n\n[Transcript truncated for token limits.]"
}

func mustJSON(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// BuildSummaryPrompt is the single-shot summarization prompt used when
// chunking yields nothing or multi-pass is unavailable.
func BuildSummaryPrompt(transcript string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are an expert academic assistant. Create a structured study summary from the lecture transcript.

Return ONLY valid JSON with this exact schema:
{
  "overview_paragraphs": ["paragraph 1", "paragraph 2", "paragraph 3"],
  "key_definitions": ["string"],
  "core_concepts": ["string"],
  "important_examples": ["string"],
  "exam_revision_points": ["string"]
}

Rules:
- Exactly 3 overview paragraphs.
- 4 to 8 bullet points per array.
- Keep each bullet concise, academic, and exam-focused.
- Avoid repeating ideas across sections.
- If transcript is noisy, infer the most likely educational intent.

Transcript:
%s`, trimForPrompt(transcript, promptExcerptChars)))
}

// BuildChunkPrompt requests bounded per-chunk notes during the map stage.
func BuildChunkPrompt(chunkText string, chunkIndex, totalChunks int) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are processing lecture chunk %d of %d for multi-pass summarization.

Use only the chunk content below. Avoid hallucinations.

Return ONLY valid JSON with this exact schema:
{
  "chunk_title": "string",
  "key_definitions": ["string"],
  "core_concepts": ["string"],
  "important_examples": ["string"],
  "revision_points": ["string"],
  "fact_statements": ["string"]
}

Rules:
- 2 to 5 items per list.
- fact_statements must be concrete, source-grounded statements.
- Keep output concise and exam-relevant.

Chunk content:
%s`, chunkIndex, totalChunks, chunkText))
}

// BuildReducePrompt merges surviving chunk notes into one consolidated set.
func BuildReducePrompt(chunkNotes []map[string]any) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are in reduce stage of a map-reduce lecture summarization pipeline.

Merge the chunk outputs into a coherent consolidated representation.

Return ONLY valid JSON with this exact schema:
{
  "topic_outline": ["string"],
  "key_definitions": ["string"],
  "core_concepts": ["string"],
  "important_examples": ["string"],
  "exam_revision_points": ["string"],
  "fact_bank": ["string"]
}

Rules:
- Remove duplicates and weak points.
- Preserve technical accuracy.
- Keep output concise.

Chunk notes JSON:
%s`, mustJSON(chunkNotes)))
}

// BuildSynthesisPrompt combines reduced notes with a transcript excerpt
// into the final candidate summary.
func BuildSynthesisPrompt(reducedNotes map[string]any, transcriptExcerpt string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are in final synthesis stage of multi-pass summarization.

Use the reduced notes and transcript excerpt to produce final structured output.

Return ONLY valid JSON with this exact schema:
{
  "overview_paragraphs": ["paragraph 1", "paragraph 2", "paragraph 3"],
  "key_definitions": ["string"],
  "core_concepts": ["string"],
  "important_examples": ["string"],
  "exam_revision_points": ["string"]
}

Rules:
- Exactly 3 coherent overview paragraphs.
- 4 to 8 items per bullet section.
- No redundancy across sections.
- Keep exam preparation focus.

Reduced notes:
%s

Transcript excerpt:
%s`, mustJSON(reducedNotes), trimForPrompt(transcriptExcerpt, synthesisExcerptChars)))
}

// BuildValidationPrompt asks the model to self-check the candidate against
// the reduced notes.
func BuildValidationPrompt(candidate, reducedNotes map[string]any) string {
	return strings.TrimSpace(fmt.Sprintf(`
Validate and improve this lecture summary for factual consistency and clarity.

Return ONLY valid JSON with this exact schema:
{
  "overview_paragraphs": ["paragraph 1", "paragraph 2", "paragraph 3"],
  "key_definitions": ["string"],
  "core_concepts": ["string"],
  "important_examples": ["string"],
  "exam_revision_points": ["string"]
}

Validation checklist:
- Keep exactly 3 overview paragraphs.
- Remove repetitions.
- Keep only claims supported by reduced notes.
- Improve clarity and exam relevance.

Candidate summary:
%s

Reduced notes:
%s`, mustJSON(candidate), mustJSON(reducedNotes)))
}

func formatHistory(history []pipeline.ChatMessage) string {
	var lines []string
	for _, msg := range TrimHistory(history) {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// BuildChatPrompt grounds the tutor chat in the summary, retrieved
// excerpts and recent conversation.
func BuildChatPrompt(summary pipeline.StructuredSummary, message string,
	history []pipeline.ChatMessage, contextChunks []string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are StudySense's contextual tutor chatbot.

Grounding rules:
- Use summary context and retrieved lecture excerpts as primary evidence.
- If a question is outside available context, clearly say it is not in the current notes.
- Keep answer concise, exam-ready, and avoid unsupported claims.

Summary context:
%s

Retrieved lecture context:
%s

Recent conversation:
%s

Student question:
%s

Provide a direct and accurate answer.`,
		mustJSON(summary), strings.Join(contextChunks, "\n\n"), formatHistory(history), message))
}

// BuildMCQPrompt requests exactly 5 grounded multiple-choice questions.
func BuildMCQPrompt(summary pipeline.StructuredSummary, contextChunks []string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Generate exactly 5 multiple-choice questions from the summary and retrieved context.

Return ONLY valid JSON with this exact schema:
{
  "mcqs": [
    {
      "question": "string",
      "options": ["option A", "option B", "option C", "option D"],
      "correct_index": 0,
      "explanation": "string"
    }
  ]
}

Rules:
- Exactly 5 questions.
- 4 options each.
- correct_index must be 0 to 3.
- Questions should test understanding and application, not only memorization.
- Explanations must be grounded in provided context.

Summary context:
%s

Retrieved lecture context:
%s`, mustJSON(summary), strings.Join(contextChunks, "\n\n")))
}

// BuildSolverPrompt frames the free-form problem-solving conversation.
func BuildSolverPrompt(message string, history []pipeline.ChatMessage) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are StudySense Solver Chat, a high-accuracy problem-solving tutor.

Behavior rules:
- Support math, programming, science, and general study questions.
- If an image is provided, use it as primary context.
- Show step-by-step reasoning concisely.
- For math, include formulas and final answer clearly.
- If information is insufficient, ask a precise follow-up question.

Recent conversation:
%s

User request:
%s`, formatHistory(history), message))
}
