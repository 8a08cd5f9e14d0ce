package brain

import (
	"fmt"
	"strings"

	"github.com/dotsetgreg/secondbrain/pkg/vectorindex"
)

const systemPrompt = `You are "The Second Brain", a personal AI assistant with access to the user's personal and professional information.
Your role is to help the user recall information and make connections between different pieces of knowledge based on their complete digital memory.

Guidelines:
- Be precise and factual based on the context provided
- If information isn't in the context, say so clearly
- Maintain a helpful, professional tone`

// Truncation bounds for overlong retrieved chunks.
const (
	maxChunkChars  = 800
	truncatedChars = 400
	elisionMarker  = "\n...[truncated]...\n"
)

// truncateChunk keeps the head and tail of an overlong chunk. Exactly
// maxChunkChars passes through untouched.
func truncateChunk(text string) string {
	if len(text) <= maxChunkChars {
		return text
	}
	return text[:truncatedChars] + elisionMarker + text[len(text)-truncatedChars:]
}

// Prompt-assembly bounds: how much history and activity the generator sees.
const (
	promptHistoryTurns = 4
	promptActionCount  = 3
)

// buildPrompt assembles the user prompt for the response generator: recent
// history, recent activity with an explicit note for the latest image, the
// retrieved context with file attribution, and the question itself.
func buildPrompt(question string, results []vectorindex.Result, history []Turn, actions []Action, lastImage *Action) string {
	var b strings.Builder

	if len(history) > 0 {
		b.WriteString("Previous Conversation:\n")
		for _, turn := range history {
			role := "User"
			if turn.Role == "assistant" {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No previous conversation in this session.\n\n")
	}

	if len(actions) > 0 {
		b.WriteString("Recent Activity:\n")
		for _, action := range actions {
			switch action.Kind {
			case ActionIngest:
				fmt.Fprintf(&b, "- ingested %s (%s)\n", action.Details["file_name"], action.Details["file_type"])
			case ActionQuery:
				fmt.Fprintf(&b, "- asked: %s\n", action.Details["query"])
			}
		}
		if lastImage != nil {
			fmt.Fprintf(&b, "Note: the most recently ingested image is %s.\n", lastImage.Details["file_name"])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current Query: %s\n\n", question)

	b.WriteString("Relevant Context from Your Knowledge Base:\n")
	if len(results) == 0 {
		b.WriteString("No relevant context found in the knowledge base.\n")
	}
	for i, result := range results {
		fmt.Fprintf(&b, "--- Context %d (Source: %s) ---\n%s\n\n",
			i+1, result.Metadata.FileName, truncateChunk(result.Text))
	}

	b.WriteString("Please provide a helpful response based on the above context:")
	return b.String()
}

// sourceNames lists the distinct file names behind the results, in rank
// order.
func sourceNames(results []vectorindex.Result) []string {
	var names []string
	seen := map[string]bool{}
	for _, result := range results {
		name := result.Metadata.FileName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// fallbackAnswer builds a templated response from the first retrieved
// chunk's keyword overlap with the query, for when every generation backend
// is down. Confidence never exceeds 0.7.
func fallbackAnswer(question string, results []vectorindex.Result) Response {
	if len(results) > 0 {
		first := results[0]
		content := strings.ToLower(first.Text)

		var matched []string
		for _, word := range strings.Fields(strings.ToLower(question)) {
			word = strings.Trim(word, ".,?!\"'")
			if len(word) > 3 && strings.Contains(content, word) {
				matched = append(matched, word)
			}
		}
		if len(matched) > 0 {
			return Response{
				Response: fmt.Sprintf(
					"I found information about %s in %s, but I'm currently unable to generate a detailed answer. The most relevant excerpt is:\n\n%s",
					strings.Join(matched, ", "), first.Metadata.FileName, truncateChunk(first.Text)),
				Sources:    sourceNames(results),
				Confidence: 0.7,
			}
		}
		return Response{
			Response:   "I found some information in your knowledge base, but I'm currently unable to generate a detailed response. Please check your provider configuration.",
			Sources:    sourceNames(results),
			Confidence: 0.3,
		}
	}
	return Response{
		Response:   "I couldn't find anything relevant in your knowledge base, and no answer could be generated right now.",
		Confidence: 0.3,
	}
}
