// Package observability provides pipeline metrics and formatted output for
// verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCandidates outputs the top ranked topic candidates with their scores.
func (p *Printer) PrintCandidates(candidates []types.TopicCandidate) {
	if len(candidates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidates ranked: %d\n\n", len(candidates)))

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, c.Primary))
		sb.WriteString(fmt.Sprintf("    Score: %.1f", c.Score))
		var tags []string
		if c.IndustryMatch {
			tags = append(tags, "industry")
		}
		if c.ContextMatch {
			tags = append(tags, "context")
		}
		if len(tags) > 0 {
			sb.WriteString(fmt.Sprintf(" [%s]", strings.Join(tags, ", ")))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more candidates", len(candidates)-maxItemsToShow))
	}

	p.printBox("TOPIC CANDIDATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintContent outputs the generated blog and pin copy.
func (p *Printer) PrintContent(content *types.GeneratedContent) {
	if content == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:     %s\n", content.Blog.Title))
	sb.WriteString(fmt.Sprintf("Meta:      %s\n", content.Blog.MetaTitle))
	sb.WriteString(fmt.Sprintf("Body:      %d bytes of HTML\n", len(content.Blog.BodyHTML)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Headline:  %s\n", content.Social.Headline))
	sb.WriteString(fmt.Sprintf("Pin text:  %s", content.Social.Description))

	p.printBox("GENERATED CONTENT", sb.String())
}

// RunSummary is the outcome of one run as shown at the end of the CLI output.
type RunSummary struct {
	RunID      int64
	Status     string
	DryRun     bool
	Topic      string
	ArticleURL string
	ImageURL   string
	PinURL     string
	Warnings   []string
	Error      string
}

// PrintRunSummary outputs the final state of a run.
func (p *Printer) PrintRunSummary(s RunSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       #%d\n", s.RunID))
	status := s.Status
	if s.DryRun {
		status += " (dry run)"
	}
	sb.WriteString(fmt.Sprintf("Status:    %s\n", status))
	if s.Topic != "" {
		sb.WriteString(fmt.Sprintf("Topic:     %s\n", s.Topic))
	}
	if s.ArticleURL != "" {
		sb.WriteString(fmt.Sprintf("Article:   %s\n", s.ArticleURL))
	}
	if s.ImageURL != "" {
		sb.WriteString(fmt.Sprintf("Image:     %s\n", s.ImageURL))
	}
	if s.PinURL != "" {
		sb.WriteString(fmt.Sprintf("Pin:       %s\n", s.PinURL))
	}
	if len(s.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("\nWarnings (%d):\n", len(s.Warnings)))
		for _, w := range s.Warnings {
			sb.WriteString(fmt.Sprintf("  • %s\n", w))
		}
	}
	if s.Error != "" {
		sb.WriteString(fmt.Sprintf("\nError: %s\n", s.Error))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
