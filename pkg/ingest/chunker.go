package ingest

import "strings"

// DefaultChunkSize bounds chunk length in characters. Chunks up to 1.5x this
// size survive the paragraph pass; larger ones get re-split on sentences.
const DefaultChunkSize = 800

// Chunker splits extracted text into bounded segments, preferring paragraph
// boundaries and falling back to sentence boundaries for oversized
// paragraphs.
type Chunker struct {
	Size int
}

func (c Chunker) size() int {
	if c.Size > 0 {
		return c.Size
	}
	return DefaultChunkSize
}

// Split breaks text into chunks. Text shorter than the chunk size comes back
// as a single chunk; empty text produces no chunks.
func (c Chunker) Split(text string) []string {
	limit := c.size()
	if text == "" {
		return nil
	}
	if len(text) < limit {
		return []string{text}
	}

	chunks := splitAccumulating(strings.Split(text, "\n\n"), "\n\n", limit)

	oversized := false
	for _, chunk := range chunks {
		if len(chunk) > limit*3/2 {
			oversized = true
			break
		}
	}
	if !oversized {
		return chunks
	}

	refined := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk) <= limit*3/2 {
			refined = append(refined, chunk)
			continue
		}
		refined = append(refined, splitAccumulating(strings.Split(chunk, ". "), ". ", limit)...)
	}
	return refined
}

// splitAccumulating greedily packs parts into chunks no larger than limit,
// keeping each part intact even when it alone exceeds the limit.
func splitAccumulating(parts []string, sep string, limit int) []string {
	var chunks []string
	var current strings.Builder

	for _, part := range parts {
		if current.Len() > 0 && current.Len()+len(sep)+len(part) > limit {
			if chunk := strings.TrimSpace(current.String()); chunk != "" {
				chunks = append(chunks, chunk)
			}
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
