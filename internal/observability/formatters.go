// Package observability renders boxed, human-readable reports for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/interview-coach/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the width of a score bar
	barWidth = 20
)

// Printer writes boxed reports.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// wrap breaks s into lines of at most n runes on word boundaries.
func wrap(s string, n int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		word = truncate(word, n)
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+1+utf8.RuneCountInString(word) > n {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// scoreBar draws score out of MaxScore.
func scoreBar(score int) string {
	filled := max(0, min(barWidth, score*barWidth/types.MaxScore))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	pad := func(s string) string {
		s = truncate(s, inner)
		return s + strings.Repeat(" ", inner-utf8.RuneCountInString(s))
	}

	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintInterview outputs an interview and its questions.
func (p *Printer) PrintInterview(iv *types.Interview) {
	if iv == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Role:      %s\n", iv.Role)
	fmt.Fprintf(&sb, "Level:     %s\n", iv.Level)
	fmt.Fprintf(&sb, "Type:      %s\n", iv.Type)
	if len(iv.Techstack) > 0 {
		fmt.Fprintf(&sb, "Techstack: %s\n", strings.Join(iv.Techstack, ", "))
	}
	fmt.Fprintf(&sb, "Created:   %s\n", iv.CreatedAt.Format("Jan 2, 2006"))

	if len(iv.Questions) > 0 {
		sb.WriteString("\nQuestions:\n")
		for i, q := range iv.Questions {
			for j, line := range wrap(q, boxWidth-10) {
				if j == 0 {
					fmt.Fprintf(&sb, "  %2d. %s\n", i+1, line)
				} else {
					fmt.Fprintf(&sb, "      %s\n", line)
				}
			}
		}
	}

	p.printBox("INTERVIEW "+strings.ToUpper(iv.Role), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFeedback outputs a feedback record with per-category score bars.
func (p *Printer) PrintFeedback(fb *types.Feedback) {
	if fb == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall:  %3d/100  %s\n", fb.TotalScore, scoreBar(fb.TotalScore))
	fmt.Fprintf(&sb, "Date:     %s\n\n", fb.CreatedAt.Format("Jan 2, 2006 3:04 PM"))

	sb.WriteString("Breakdown:\n")
	for i, cs := range fb.CategoryScores {
		fmt.Fprintf(&sb, "%d. %-24s %3d\n", i+1, truncate(cs.Name, 24), cs.Score)
		for _, line := range wrap(cs.Comment, boxWidth-8) {
			fmt.Fprintf(&sb, "   %s\n", line)
		}
	}

	writeList(&sb, "Strengths", fb.Strengths)
	writeList(&sb, "Areas for improvement", fb.AreasForImprovement)

	if fb.FinalAssessment != "" {
		sb.WriteString("\nFinal assessment:\n")
		for _, line := range wrap(fb.FinalAssessment, boxWidth-6) {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}

	p.printBox("FEEDBACK", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		for j, line := range wrap(item, boxWidth-8) {
			if j == 0 {
				fmt.Fprintf(sb, "  • %s\n", line)
			} else {
				fmt.Fprintf(sb, "    %s\n", line)
			}
		}
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintInterviewList outputs one line per interview.
func (p *Printer) PrintInterviewList(title string, list []types.Interview) {
	if len(list) == 0 {
		p.printBox(title, "No interviews.")
		return
	}

	var sb strings.Builder
	for i, iv := range list {
		fmt.Fprintf(&sb, "%-28s %-10s %2d questions\n",
			truncate(iv.Role, 28), truncate(iv.Level, 10), len(iv.Questions))
		if i == maxItemsToShow*2-1 && len(list) > maxItemsToShow*2 {
			fmt.Fprintf(&sb, "... and %d more\n", len(list)-maxItemsToShow*2)
			break
		}
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}
