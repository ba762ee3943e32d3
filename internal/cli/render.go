package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stemsi/studyguide/internal/assessment"
)

const (
	colorRed   = "196"
	colorAmber = "220"
	colorGreen = "42"
	colorMuted = "244"
)

// Timer bands, in seconds remaining.
const (
	urgentSeconds  = 60
	warningSeconds = 180
)

type palette struct {
	noColor bool
}

func (p palette) stylize(text, color string, bold bool) string {
	if p.noColor || text == "" {
		return text
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	if bold {
		style = style.Bold(true)
	}
	return style.Render(text)
}

// timerColor picks the band for a countdown: red in the last minute, amber
// in the last three, green otherwise.
func timerColor(seconds int) string {
	switch {
	case seconds <= urgentSeconds:
		return colorRed
	case seconds <= warningSeconds:
		return colorAmber
	default:
		return colorGreen
	}
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (p palette) timer(seconds int) string {
	return p.stylize(formatClock(seconds), timerColor(seconds), seconds <= urgentSeconds)
}

func (p palette) muted(text string) string {
	return p.stylize(text, colorMuted, false)
}

func (p palette) heading(text string) string {
	if p.noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

func (p palette) verdict(correct bool) string {
	if correct {
		return p.stylize("correct", colorGreen, true)
	}
	return p.stylize("incorrect", colorRed, true)
}

// optionLabel maps 0 -> "a", 1 -> "b" and so on.
func optionLabel(i int) string {
	return string(rune('a' + i))
}

// parseSelection turns "a,c" or "a c" into option values of q.
func parseSelection(q assessment.ChoiceQuestion, input string) ([]string, error) {
	fields := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("choose at least one option")
	}
	selected := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) != 1 || f[0] < 'a' || int(f[0]-'a') >= len(q.Options) {
			return nil, fmt.Errorf("%q is not an option", f)
		}
		selected = append(selected, q.Options[f[0]-'a'])
	}
	return selected, nil
}

func (p palette) renderResult(res assessment.Result) string {
	var b strings.Builder
	b.WriteString(p.heading("Result") + "\n")

	if res.Score == nil {
		b.WriteString("  Score: " + p.muted("not available") + "\n")
	} else {
		label := p.stylize("FAILED", colorRed, true)
		if assessment.Passed(*res.Score) {
			label = p.stylize("PASSED", colorGreen, true)
		}
		fmt.Fprintf(&b, "  Score: %d%% %s\n", *res.Score, label)
	}
	if res.Kind.IsChoice() {
		fmt.Fprintf(&b, "  Correct: %d/%d\n", res.Correct, res.Total)
		for i, ok := range res.Breakdown {
			fmt.Fprintf(&b, "    %2d. %s\n", i+1, p.verdict(ok))
		}
	}
	fmt.Fprintf(&b, "  Time: %s\n", formatClock(int(res.Elapsed.Round(time.Second).Seconds())))
	if res.AutoSubmitted {
		b.WriteString("  " + p.stylize("Submitted automatically when time ran out", colorAmber, false) + "\n")
	}
	if res.Feedback != "" {
		b.WriteString("\n" + p.heading("Feedback") + "\n" + res.Feedback + "\n")
	}
	return b.String()
}
