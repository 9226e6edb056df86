// Package report renders per-location outcomes and the run footer for a
// terminal or a plain writer.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/usecase/analyze"
)

// Display limits.
const (
	TopContractors = 5
	MaxSnippets    = 3
	SnippetRunes   = 200
)

// Printer writes outcomes to w. Styling is dropped when w is not a terminal.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	styles styles
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styles: newStyles(lipgloss.NewRenderer(w))}
}

var _ analyze.Reporter = (*Printer)(nil)

// Report writes one location block.
func (p *Printer) Report(o analyze.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	st := p.styles
	loc := o.Location

	b.WriteString(st.title.Render(fmt.Sprintf("[%d] %s", loc.Index()+1, loc.Name())))
	b.WriteByte('\n')
	if loc.HasCoordinates() {
		fmt.Fprintf(&b, "  %s %.4f, %.4f\n", st.dim.Render("coordinates:"), loc.Latitude(), loc.Longitude())
	} else {
		fmt.Fprintf(&b, "  %s none\n", st.dim.Render("coordinates:"))
	}

	if o.Incomplete() {
		fmt.Fprintf(&b, "  %s %v\n", st.bad.Render("INCOMPLETE"), o.Err())
	}

	if o.Summary != nil {
		writeSummary(&b, st, *o.Summary, o.ContractCached)
	}

	if len(o.Snippets) > 0 {
		b.WriteString("  " + st.section.Render("Search results") + cachedTag(st, o.SearchCached) + "\n")
		for i, r := range o.Snippets {
			if i == MaxSnippets {
				break
			}
			fmt.Fprintf(&b, "    - %s\n", r.Title)
			if r.Link != "" {
				fmt.Fprintf(&b, "      %s\n", st.dim.Render(r.Link))
			}
			if s := Truncate(r.Snippet, SnippetRunes); s != "" {
				fmt.Fprintf(&b, "      %s\n", s)
			}
		}
	}

	b.WriteByte('\n')
	_, _ = io.WriteString(p.w, b.String())
}

func writeSummary(b *strings.Builder, st styles, s contract.Summary, cached bool) {
	b.WriteString("  " + st.section.Render("Federal contracts") + cachedTag(st, cached) + "\n")
	fmt.Fprintf(b, "    total:  %s across %d awards\n", st.money.Render(FormatUSD(s.TotalValue)), s.AwardCount)
	if s.MissingAmounts > 0 {
		fmt.Fprintf(b, "    %s\n", st.dim.Render(fmt.Sprintf("%d awards without an amount", s.MissingAmounts)))
	}
	if top := s.Top(TopContractors); len(top) > 0 {
		b.WriteString("    top contractors:\n")
		for i, c := range top {
			fmt.Fprintf(b, "      %d. %s: %s\n", i+1, c.Recipient, FormatUSD(c.Total))
		}
	}
	if len(s.Agencies) > 0 {
		fmt.Fprintf(b, "    agencies: %s\n", strings.Join(s.Agencies, ", "))
	}
	if len(s.Descriptions) > 0 {
		b.WriteString("    sample awards:\n")
		for _, d := range s.Descriptions {
			fmt.Fprintf(b, "      - %s\n", Truncate(d, SnippetRunes))
		}
	}
}

func cachedTag(st styles, cached bool) string {
	if !cached {
		return ""
	}
	return " " + st.dim.Render("(cached)")
}

// Footer writes the run totals.
func (p *Printer) Footer(r analyze.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	lines := []string{
		fmt.Sprintf("Processed %d locations, %d incomplete", r.Processed, r.Failed),
	}
	if r.Skipped > 0 {
		lines = append(lines, fmt.Sprintf("Skipped %d locations (canceled)", r.Skipped))
	}
	if n := r.SearchHits + r.SearchMisses; n > 0 {
		lines = append(lines, fmt.Sprintf("Search cache:   %d/%d hits (%s)", r.SearchHits, n, ratio(r.SearchHits, n)))
	}
	if n := r.ContractHits + r.ContractMisses; n > 0 {
		lines = append(lines, fmt.Sprintf("Contract cache: %d/%d hits (%s)", r.ContractHits, n, ratio(r.ContractHits, n)))
	}

	_, _ = io.WriteString(p.w, p.styles.footer.Render(strings.Join(lines, "\n"))+"\n")
}

func ratio(hits, total int) string {
	return fmt.Sprintf("%.0f%%", float64(hits)*100/float64(total))
}

// FormatUSD renders an amount as $1,234.56.
func FormatUSD(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
