package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"hackhub/internal/domain"
)

// Input modes
const (
	InputSearch = "search"
	InputFilter = "filter"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Height         int
	ActiveTab      domain.Tab
	Loading        bool
	LoadError      string
	Items          []domain.SearchableItem
	SelectedIndex  int
	ViewportOffset int
	ViewportHeight int
	Displayed      int
	Total          int
	FetchingMore   bool
	Filters        domain.FilterState
	InputMode      string
	TextInput      string
	SearchOpen     bool
	Searching      bool
	SearchQuery    string
	Results        []domain.ResultItem
	ResultIndex    int
	Banner         string
	PartialNote    string
	StatusMessage  string
	HelpView       string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinnerFrame() string {
	return spinner[int(time.Now().UnixMilli()/80)%len(spinner)]
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderTitle(state))
	content.WriteString("\n")
	content.WriteString(r.renderTabs(state.ActiveTab))
	content.WriteString("\n")

	if state.Banner != "" {
		content.WriteString(r.styles.Banner.Render(state.Banner + "  r retry · esc dismiss"))
		content.WriteString("\n")
	}

	if state.InputMode != "" {
		content.WriteString(state.TextInput)
		content.WriteString("\n")
	}

	if state.SearchOpen {
		content.WriteString(r.renderDropdown(state))
		content.WriteString("\n")
	} else {
		content.WriteString("\n")
		content.WriteString(r.renderList(state))
	}

	footer := r.renderFooter(state)

	currentLines := strings.Count(content.String(), "\n") + 1
	availableLines := state.Height - 2
	if availableLines <= 0 {
		availableLines = 22
	}
	footerLines := strings.Count(footer, "\n") + 1
	if pad := availableLines - currentLines - footerLines; pad > 0 {
		content.WriteString(strings.Repeat("\n", pad))
	}
	content.WriteString("\n")
	content.WriteString(footer)

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

func (r *Renderer) renderTitle(state ViewState) string {
	logo := r.styles.Title.Render("hackhub")

	var indicators []string
	if state.Loading {
		indicators = append(indicators, fmt.Sprintf("%s Loading %s", spinnerFrame(), strings.ToLower(state.ActiveTab.String())))
	}
	if state.Searching {
		indicators = append(indicators, fmt.Sprintf("%s Searching", spinnerFrame()))
	}

	right := ""
	if len(indicators) > 0 {
		right = r.styles.Dim.Render(strings.Join(indicators, " | "))
	}
	if f := describeFilters(state.ActiveTab, state.Filters); f != "" {
		filterText := r.styles.Filter.Render("[" + f + "]")
		if right != "" {
			right += "  " + filterText
		} else {
			right = filterText
		}
	}
	if right == "" {
		return logo
	}

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	padding := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(right)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + right
}

func describeFilters(tab domain.Tab, f domain.FilterState) string {
	var parts []string
	if f.SearchTerm != "" {
		parts = append(parts, "Filter: "+f.SearchTerm)
	}
	if tab.Kind() == domain.KindEvent {
		if !f.Mode.IsAll() {
			parts = append(parts, "Mode: "+string(f.Mode))
		}
		if !f.Status.IsAll() {
			parts = append(parts, "Status: "+string(f.Status))
		}
	} else if !f.Category.IsAll() {
		parts = append(parts, "Category: "+string(f.Category))
	}
	return strings.Join(parts, ", ")
}

func (r *Renderer) renderTabs(active domain.Tab) string {
	tabs := make([]string, 0, len(domain.Tabs))
	for _, tab := range domain.Tabs {
		if tab == active {
			tabs = append(tabs, r.styles.TabActive.Render(tab.String()))
		} else {
			tabs = append(tabs, r.styles.TabInactive.Render(tab.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (r *Renderer) renderDropdown(state ViewState) string {
	var lines []string
	switch {
	case state.SearchQuery == "":
		lines = append(lines, r.styles.Dim.Render("Type to search events and articles"))
	case state.Searching && len(state.Results) == 0:
		lines = append(lines, r.styles.StatusLoading.Render(spinnerFrame()+" Searching..."))
	case len(state.Results) == 0 && state.Banner == "":
		lines = append(lines, r.styles.Dim.Render(fmt.Sprintf("No results for %q", state.SearchQuery)))
	}

	for i, res := range state.Results {
		badge := lipgloss.NewStyle().Foreground(lipgloss.Color(KindColor(res.Type))).Render(fmt.Sprintf("%-7s", res.Type))
		line := fmt.Sprintf("%s %s", badge, res.Title)
		if i == state.ResultIndex {
			line = r.styles.SelectionBg.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if state.PartialNote != "" {
		lines = append(lines, r.styles.StatusWarning.Render(state.PartialNote))
	}

	box := r.styles.Dropdown
	if state.Width > 8 {
		box = box.Width(state.Width - 8)
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) renderList(state ViewState) string {
	switch {
	case state.Loading && len(state.Items) == 0:
		return r.styles.Dim.Render("Loading " + strings.ToLower(state.ActiveTab.String()) + "...")
	case state.LoadError != "":
		return r.styles.StatusError.Render(state.LoadError) + "\n" + r.styles.Dim.Render("Press r to retry.")
	case len(state.Items) == 0 && !state.Filters.IsNeutral():
		return r.styles.Dim.Render("Nothing matches these filters. Press x to clear them.")
	case len(state.Items) == 0:
		return r.styles.Dim.Render("Nothing here yet.")
	}

	height := state.ViewportHeight
	if height <= 0 {
		height = len(state.Items)
	}
	end := min(state.ViewportOffset+height, len(state.Items))

	lines := make([]string, 0, end-state.ViewportOffset)
	for i := state.ViewportOffset; i < end; i++ {
		lines = append(lines, r.renderItem(state.Items[i], i == state.SelectedIndex, state.Width))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderItem(item domain.SearchableItem, selected bool, width int) string {
	line := item.Title
	if len(item.Tags) > 0 {
		line += " " + r.styles.Tag.Render("#"+strings.Join(item.Tags, " #"))
	}
	if width > 10 && lipgloss.Width(line) > width-8 {
		line = truncate(item.Title, width-8)
	}
	if selected {
		return r.styles.SelectionBg.Render("> " + line)
	}
	return "  " + line
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n || n < 2 {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func (r *Renderer) renderFooter(state ViewState) string {
	var b strings.Builder
	if state.Total > 0 {
		b.WriteString(r.styles.Footer.Render(fmt.Sprintf("Showing %d of %d", state.Displayed, state.Total)))
		if state.FetchingMore {
			b.WriteString(r.styles.StatusLoading.Render("  " + spinnerFrame() + " loading more"))
		}
	}
	if state.StatusMessage != "" {
		if b.Len() > 0 {
			b.WriteString("  ")
		}
		b.WriteString(r.styles.StatusWarning.Render(state.StatusMessage))
	}
	if state.HelpView != "" {
		b.WriteString("\n")
		b.WriteString(r.styles.Help.Render(state.HelpView))
	}
	return b.String()
}
