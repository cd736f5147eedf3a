package rag

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the grounded-generation prompt: a fixed
// instruction header, the retrieved excerpts in descending-score
// order, and the user's question verbatim.
func BuildPrompt(excerpts []string, question string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant answering questions about a video or document.\n")
	sb.WriteString("Use only the excerpts below to answer. If they do not contain the answer,\n")
	sb.WriteString("say that the source does not cover it.\n\n")

	sb.WriteString("## Source Excerpts:\n")
	for i, text := range excerpts {
		sb.WriteString(fmt.Sprintf("\n[%d] %s\n", i+1, text))
	}

	sb.WriteString("\n## Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

// BuildSummaryPrompt assembles the whole-source summary prompt. The
// excerpts are the source's chunks in sequence order.
func BuildSummaryPrompt(title string, kind SourceKind, excerpts []string) string {
	var sb strings.Builder

	if kind == SourceKindVideo {
		sb.WriteString(fmt.Sprintf("Provide a comprehensive summary of this video titled %q.\n", title))
		sb.WriteString("Include what the video is about, the main topics and key points, and the important takeaways.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Provide a comprehensive summary of this document titled %q.\n", title))
		sb.WriteString("Include a brief overview, the key points and main ideas, and any important conclusions.\n\n")
	}

	sb.WriteString("## Content:\n")
	for i, text := range excerpts {
		sb.WriteString(fmt.Sprintf("\n[%d] %s\n", i+1, text))
	}

	sb.WriteString("\nSummary:")
	return sb.String()
}
