package engine

import "fmt"

// LLM prompt templates: data only, no logic.

// summaryPrompt asks for a structured summary of a whole transcript.
// Args: joined transcript text.
const summaryPrompt = `Summarize the provided YouTube video transcript (%s) in a structured format.`

// BuildSummaryPrompt embeds the transcript into the summary template.
func BuildSummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryPrompt, transcript)
}
