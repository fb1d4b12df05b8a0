package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"hackhub/internal/domain"
	"hackhub/internal/eventbus"
	"hackhub/internal/listing"
	"hackhub/internal/search"
	"hackhub/internal/ui/views"
)

// Model represents the UI state
type Model struct {
	ctx    context.Context
	list   *listing.Controller
	search *search.Controller
	bus    eventbus.EventBus
	logger *zap.Logger

	keys     keyMap
	help     help.Model
	renderer *views.Renderer

	searchInput textinput.Model
	filterInput textinput.Model
	inputMode   string

	width          int
	height         int
	selectedIndex  int
	viewportOffset int
	resultIndex    int
	statusMessage  string
}

// NewModel creates a new UI model over the list and search controllers.
// Scroll positions are published on bus.
func NewModel(ctx context.Context, list *listing.Controller, searcher *search.Controller, bus eventbus.EventBus, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	searchInput := textinput.New()
	searchInput.Prompt = "Search: "
	searchInput.Placeholder = "events and articles"
	searchInput.CharLimit = 120

	filterInput := textinput.New()
	filterInput.Prompt = "Filter: "
	filterInput.Placeholder = "title, description or tag"
	filterInput.CharLimit = 120

	return &Model{
		ctx:         ctx,
		list:        list,
		search:      searcher,
		bus:         bus,
		logger:      logger,
		keys:        defaultKeyMap(),
		help:        help.New(),
		renderer:    views.NewRenderer(),
		searchInput: searchInput,
		filterInput: filterInput,
	}
}

// Init loads the initial tab and starts the animation tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadTab(m.list.ActiveTab()), tick())
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) loadTab(tab domain.Tab) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{tab: tab, err: m.list.SetTab(m.ctx, tab)}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampSelection()

	case tickMsg:
		return m, tick()

	case loadedMsg:
		if msg.err != nil {
			m.logger.Warn("tab load failed", zap.Stringer("tab", msg.tab), zap.Error(msg.err))
		}
		m.clampSelection()

	case readerClosedMsg:
		if msg.err != nil {
			m.logger.Error("reader failed", zap.Error(msg.err))
			m.statusMessage = "Could not open the reader."
		}

	case EventMsg:
		m.handleEvent(msg.Event)

	case tea.KeyMsg:
		switch m.inputMode {
		case views.InputSearch:
			return m.updateSearch(msg)
		case views.InputFilter:
			return m.updateFilter(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(e eventbus.DomainEvent) {
	switch e.(type) {
	case domain.FiltersChangedEvent, domain.TabChangedEvent:
		m.selectedIndex = 0
		m.viewportOffset = 0
	case domain.SearchCompletedEvent, domain.SearchClearedEvent:
		if m.resultIndex >= len(m.search.Results()) {
			m.resultIndex = 0
		}
	}
	m.clampSelection()
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tab := m.list.ActiveTab()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.inputMode = views.InputSearch
		m.resultIndex = 0
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.inputMode = views.InputFilter
		m.filterInput.SetValue(m.list.Filters().SearchTerm)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Mode):
		if tab.Kind() == domain.KindEvent {
			next := cycle(m.list.Filters().Mode, domain.ModeAll, domain.EventModes)
			m.list.SetFilter(domain.FilterPatch{Mode: &next})
		}

	case key.Matches(msg, m.keys.Status):
		if tab.Kind() == domain.KindEvent {
			next := cycle(m.list.Filters().Status, domain.StatusAll, domain.EventStatuses)
			m.list.SetFilter(domain.FilterPatch{Status: &next})
		}

	case key.Matches(msg, m.keys.Category):
		if tab.Kind() == domain.KindArticle {
			next := cycle(m.list.Filters().Category, domain.CategoryAll, domain.ArticleCategories)
			m.list.SetFilter(domain.FilterPatch{Category: &next})
		}

	case key.Matches(msg, m.keys.ClearFilter):
		m.filterInput.SetValue("")
		m.list.ClearFilters()

	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)

	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.listHeight())

	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.listHeight())

	case key.Matches(msg, m.keys.Open):
		return m, m.openSelected()

	case key.Matches(msg, m.keys.Retry):
		if m.search.Error().Banner() {
			m.search.Retry()
			return m, nil
		}
		if m.list.LoadError(tab.Kind()) != nil {
			return m, m.loadTab(tab)
		}

	case key.Matches(msg, m.keys.Dismiss):
		m.search.DismissError()
		m.statusMessage = ""

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.inputMode = ""
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.search.OnQueryChange("")
		m.resultIndex = 0
		return m, nil
	case "enter":
		results := m.search.Results()
		if m.resultIndex < len(results) {
			return m, m.openResult(results[m.resultIndex])
		}
		m.search.Submit(m.searchInput.Value())
		return m, nil
	case "down", "ctrl+n":
		if n := len(m.search.Results()); n > 0 {
			m.resultIndex = min(m.resultIndex+1, n-1)
		}
		return m, nil
	case "up", "ctrl+p":
		m.resultIndex = max(m.resultIndex-1, 0)
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if value := m.searchInput.Value(); value != before {
		m.resultIndex = 0
		m.search.OnQueryChange(value)
	}
	return m, cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.inputMode = ""
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.inputMode = ""
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.list.OnSearchInput("")
		return m, nil
	}

	before := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if value := m.filterInput.Value(); value != before {
		m.list.OnSearchInput(value)
	}
	return m, cmd
}

func (m *Model) switchTab(step int) tea.Cmd {
	i := slices.Index(domain.Tabs, m.list.ActiveTab())
	n := len(domain.Tabs)
	next := domain.Tabs[((i+step)%n+n)%n]
	m.selectedIndex = 0
	m.viewportOffset = 0
	return m.loadTab(next)
}

// cycle returns the value after cur in all followed by values
func cycle[T comparable](cur, all T, values []T) T {
	seq := append([]T{all}, values...)
	i := slices.Index(seq, cur)
	return seq[(i+1)%len(seq)]
}

func (m *Model) listHeight() int {
	if m.height <= 0 {
		return 10
	}
	h := m.height - 8
	if m.inputMode != "" {
		h--
	}
	if m.search.Error().Banner() {
		h--
	}
	if m.help.ShowAll {
		h -= 4
	}
	return max(h, 3)
}

// moveSelection moves the cursor, keeps it in view and publishes the
// resulting viewport so the scroll trigger can reveal more
func (m *Model) moveSelection(delta int) {
	n := len(m.list.VisibleItems())
	if n == 0 {
		return
	}
	m.selectedIndex = min(max(m.selectedIndex+delta, 0), n-1)

	h := m.listHeight()
	if m.selectedIndex < m.viewportOffset {
		m.viewportOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.viewportOffset+h {
		m.viewportOffset = m.selectedIndex - h + 1
	}

	m.bus.Publish(domain.ViewportScrolledEvent{
		Offset:         m.viewportOffset,
		ViewportHeight: h,
		ContentHeight:  n,
	})
}

func (m *Model) clampSelection() {
	n := len(m.list.VisibleItems())
	if m.selectedIndex >= n {
		m.selectedIndex = max(n-1, 0)
	}
	h := m.listHeight()
	if m.viewportOffset > m.selectedIndex {
		m.viewportOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.viewportOffset+h {
		m.viewportOffset = m.selectedIndex - h + 1
	}
}

func (m *Model) openSelected() tea.Cmd {
	items := m.list.VisibleItems()
	if m.selectedIndex >= len(items) {
		return nil
	}
	it := items[m.selectedIndex]
	switch it.Kind {
	case domain.KindArticle:
		if a, ok := m.list.Article(it.ID); ok {
			return openDocument(articleDocument(a))
		}
	case domain.KindEvent:
		if e, ok := m.list.Event(it.ID); ok {
			return openDocument(eventDocument(e))
		}
	}
	return nil
}

func (m *Model) openResult(r domain.ResultItem) tea.Cmd {
	switch r.Type {
	case domain.KindArticle:
		if a, ok := m.list.Article(r.ID); ok {
			return openDocument(articleDocument(a))
		}
	case domain.KindEvent:
		if e, ok := m.list.Event(r.ID); ok {
			return openDocument(eventDocument(e))
		}
	}
	return openDocument(resultDocument(r))
}

func openDocument(body string) tea.Cmd {
	return tea.Exec(newReaderCommand(body), func(err error) tea.Msg {
		return readerClosedMsg{err: err}
	})
}

// View renders the model
func (m *Model) View() string {
	tab := m.list.ActiveTab()
	kind := tab.Kind()
	items := m.list.VisibleItems()

	state := views.ViewState{
		Width:          m.width,
		Height:         m.height,
		ActiveTab:      tab,
		Loading:        m.list.LoadState(kind) == domain.LoadLoading,
		Items:          items,
		SelectedIndex:  m.selectedIndex,
		ViewportOffset: m.viewportOffset,
		ViewportHeight: m.listHeight(),
		Displayed:      len(items),
		Total:          m.list.Total(),
		FetchingMore:   m.list.IsFetchingMore(),
		Filters:        m.list.Filters(),
		InputMode:      m.inputMode,
		SearchOpen:     m.inputMode == views.InputSearch,
		Searching:      m.search.Status() == search.StatusLoading,
		SearchQuery:    strings.TrimSpace(m.searchInput.Value()),
		Results:        m.search.Results(),
		ResultIndex:    m.resultIndex,
		StatusMessage:  m.statusMessage,
		HelpView:       m.help.View(m.keys),
	}
	if err := m.list.LoadError(kind); err != nil {
		state.LoadError = fmt.Sprintf("Could not load %s.", strings.ToLower(tab.String()))
	}

	switch m.inputMode {
	case views.InputSearch:
		state.TextInput = m.searchInput.View()
	case views.InputFilter:
		state.TextInput = m.filterInput.View()
	}

	if info := m.search.Error(); info != nil {
		if info.Banner() {
			state.Banner = info.Message
		} else if len(info.Partial) > 0 {
			kinds := make([]string, len(info.Partial))
			for i, k := range info.Partial {
				kinds[i] = string(k) + "s"
			}
			state.PartialNote = "Some results may be missing: " + strings.Join(kinds, ", ") + " unavailable"
		}
	}

	return m.renderer.Render(state)
}
