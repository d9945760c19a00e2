// Package ingest turns raw text into stored entries: a synchronous path
// for small inputs and an asynchronous, resumable batcher for large ones.
package ingest

import (
	"regexp"
	"strings"
)

const maxChunkChars = 500

var blankRunRe = regexp.MustCompile(`\n\s*\n\s*\n*`)

// Chunk splits text into paragraphs on one or more blank lines,
// then greedily concatenates paragraphs into chunks up to maxChunkChars,
// never splitting a paragraph across chunks.
func Chunk(text string) []string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, p := range paragraphs {
		if current.Len() == 0 {
			current.WriteString(p)
			continue
		}
		if current.Len()+2+len(p) <= maxChunkChars {
			current.WriteString("\n\n")
			current.WriteString(p)
			continue
		}
		chunks = append(chunks, current.String())
		current.Reset()
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	parts := blankRunRe.Split(normalized, -1)
	var out []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FirstLineTopic derives an entry's default topic: its first line,
// truncated to 100 characters, falling back to "ingested" when the chunk
// starts with nothing usable.
func FirstLineTopic(chunk string) string {
	line := chunk
	if idx := strings.IndexByte(chunk, '\n'); idx >= 0 {
		line = chunk[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "ingested"
	}
	if len(line) > 100 {
		return line[:100]
	}
	return line
}
