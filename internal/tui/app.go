// Package tui is the interactive search view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/search"
	"github.com/mmcdole/suasor/internal/state"
	"github.com/mmcdole/suasor/internal/tui/styles"
)

const (
	debounceDelay = 250 * time.Millisecond
	maxRows       = 15
)

// mediaTypeCycle is the order CycleType steps through
var mediaTypeCycle = []domain.MediaType{
	domain.MediaTypeAll,
	domain.MediaTypeMovie,
	domain.MediaTypeSeries,
	domain.MediaTypeAlbum,
	domain.MediaTypeArtist,
	domain.MediaTypeTrack,
}

// Model is the main application model
type Model struct {
	engine *search.Engine
	ctx    context.Context
	states <-chan state.State[searchState]
	unsub  func()

	input   textinput.Model
	filter  textinput.Model
	spinner spinner.Model
	help    help.Model

	snapshot state.State[searchState]
	matches  []search.Match
	quick    bool
	cursor   int

	seq          int
	cancelSearch context.CancelFunc
	chosen       *domain.SearchResultItem

	width  int
	height int
}

// NewModel creates the search view. The engine's recent searches should already be
// initialized. query pre-fills the input and runs at start when not blank.
func NewModel(ctx context.Context, engine *search.Engine, query string) *Model {
	in := textinput.New()
	in.Placeholder = "Search movies, series, music..."
	in.CharLimit = 200
	in.Prompt = "🔍 "
	in.PromptStyle = styles.AccentStyle
	in.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	in.PlaceholderStyle = styles.DimStyle
	in.SetValue(query)
	in.Focus()

	qf := textinput.New()
	qf.Placeholder = "narrow..."
	qf.Prompt = "/ "
	qf.PromptStyle = styles.AccentStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	ch := make(chan state.State[searchState], 16)
	obs := NewChannelObserver(ch)

	engine.SetQuery(query)
	return &Model{
		engine:   engine,
		ctx:      ctx,
		states:   ch,
		unsub:    engine.State().Subscribe(obs.OnChange),
		input:    in,
		filter:   qf,
		spinner:  sp,
		help:     help.New(),
		snapshot: engine.State().State(),
	}
}

// Chosen returns the result picked with enter, or nil when the user quit
func (m *Model) Chosen() *domain.SearchResultItem { return m.chosen }

// Init starts the input cursor, the spinner and the state listener
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, WaitForStateCmd(m.states)}
	if strings.TrimSpace(m.input.Value()) != "" {
		cmds = append(cmds, m.startSearch())
	}
	return tea.Batch(cmds...)
}

// startSearch cancels any running search and starts a new one for the current query
func (m *Model) startSearch() tea.Cmd {
	if m.cancelSearch != nil {
		m.cancelSearch()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSearch = cancel
	query := m.input.Value()
	return tea.Batch(
		SearchCmd(ctx, m.engine, query),
		SuggestionsCmd(ctx, m.engine, query),
	)
}

func (m *Model) quit() tea.Cmd {
	if m.cancelSearch != nil {
		m.cancelSearch()
	}
	m.unsub()
	return tea.Quit
}

// Update handles all messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 6
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.snapshot = state.State[searchState](msg)
		if m.quick {
			m.refreshMatches()
		}
		return m, WaitForStateCmd(m.states)

	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.startSearch()

	case SearchDoneMsg, SuggestionsMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, m.quit()

	case key.Matches(msg, Keys.Escape):
		switch {
		case m.quick:
			m.leaveQuickFilter()
			return m, nil
		case m.input.Value() != "":
			if m.cancelSearch != nil {
				m.cancelSearch()
			}
			m.input.SetValue("")
			m.engine.ClearSearch()
			m.cursor = 0
			return m, nil
		}
		return m, m.quit()

	case key.Matches(msg, Keys.Up):
		m.move(search.Up)
		return m, nil

	case key.Matches(msg, Keys.Down):
		m.move(search.Down)
		return m, nil

	case key.Matches(msg, Keys.Enter):
		return m, m.choose()

	case key.Matches(msg, Keys.QuickFilter):
		if m.quick {
			m.leaveQuickFilter()
		} else {
			m.quick = true
			m.cursor = 0
			m.input.Blur()
			m.filter.SetValue("")
			m.refreshMatches()
			return m, m.filter.Focus()
		}
		return m, nil

	case key.Matches(msg, Keys.ToggleLocal):
		return m, m.toggleSource(domain.SourceLocal)
	case key.Matches(msg, Keys.ToggleClient):
		return m, m.toggleSource(domain.SourceClient)
	case key.Matches(msg, Keys.ToggleMetadata):
		return m, m.toggleSource(domain.SourceMetadata)

	case key.Matches(msg, Keys.CycleType):
		m.engine.SetFilters(func(f *domain.SearchFilters) {
			f.MediaType = nextMediaType(f.MediaType)
		})
		return m, nil

	case key.Matches(msg, Keys.InLibrary):
		m.engine.SetFilters(func(f *domain.SearchFilters) {
			if f.InLibrary == nil {
				owned := true
				f.InLibrary = &owned
			} else {
				f.InLibrary = nil
			}
		})
		return m, nil

	case key.Matches(msg, Keys.ClearRecent):
		m.engine.ClearRecentSearches()
		return m, nil
	}

	var cmd tea.Cmd
	if m.quick {
		m.filter, cmd = m.filter.Update(msg)
		m.cursor = 0
		m.refreshMatches()
		return m, cmd
	}

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m.engine.SetQuery(m.input.Value())
	m.seq++
	return m, tea.Batch(cmd, DebounceCmd(m.seq, debounceDelay))
}

func nextMediaType(t domain.MediaType) domain.MediaType {
	for i, mt := range mediaTypeCycle {
		if mt == t {
			return mediaTypeCycle[(i+1)%len(mediaTypeCycle)]
		}
	}
	return domain.MediaTypeAll
}

// toggleSource flips one source and reruns the query
func (m *Model) toggleSource(src domain.SearchSource) tea.Cmd {
	m.engine.SetFilters(func(f *domain.SearchFilters) {
		if f.Sources == nil {
			f.Sources = append([]domain.SearchSource(nil), domain.SearchSources...)
		}
		kept := f.Sources[:0]
		found := false
		for _, s := range f.Sources {
			if s == src {
				found = true
				continue
			}
			kept = append(kept, s)
		}
		if !found {
			kept = append(kept, src)
		}
		f.Sources = kept
	})
	if strings.TrimSpace(m.input.Value()) == "" {
		return nil
	}
	return m.startSearch()
}

func (m *Model) leaveQuickFilter() {
	m.quick = false
	m.matches = nil
	m.filter.Blur()
	m.input.Focus()
}

func (m *Model) refreshMatches() {
	m.matches = m.engine.QuickFilter(m.filter.Value())
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
}

// browsingRecent is true while the query is blank and recent searches are listed
func (m *Model) browsingRecent() bool {
	return !m.quick && strings.TrimSpace(m.input.Value()) == ""
}

func (m *Model) move(d search.Direction) {
	var n int
	switch {
	case m.quick:
		n = len(m.matches)
	case m.browsingRecent():
		n = len(m.engine.RecentSearchesAsResults())
	default:
		m.engine.MoveSelection(d)
		return
	}
	if n == 0 {
		return
	}
	if d == search.Down {
		m.cursor = (m.cursor + 1) % n
	} else {
		m.cursor = (m.cursor - 1 + n) % n
	}
}

// choose acts on the highlighted row: a recent search is rerun, anything else is picked
func (m *Model) choose() tea.Cmd {
	var item *domain.SearchResultItem
	if m.quick {
		if m.cursor < len(m.matches) {
			item = &m.matches[m.cursor].Item
		}
	} else if m.browsingRecent() {
		recent := m.engine.RecentSearchesAsResults()
		if m.cursor < len(recent) {
			item = &recent[m.cursor]
		}
	} else {
		item = m.engine.Selected()
	}
	if item == nil {
		return nil
	}

	if item.Source == domain.SourceRecent {
		m.input.SetValue(item.Title)
		m.input.CursorEnd()
		m.engine.SetQuery(item.Title)
		m.leaveQuickFilter()
		m.cursor = 0
		return m.startSearch()
	}

	m.engine.SaveRecentSearch(m.input.Value())
	m.chosen = item
	return m.quit()
}

// View renders the search view
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("suasor search"))
	b.WriteString("  ")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.quick {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderRows())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(Keys.ShortHelp()))

	return styles.FrameStyle.Width(max(m.width-2, 40)).Render(b.String())
}

func (m *Model) renderFilters() string {
	f := m.snapshot.Data.Filters
	var parts []string
	for _, src := range domain.SearchSources {
		label := string(src)
		if f.HasSource(src) {
			parts = append(parts, badge(src).Render(label))
		} else {
			parts = append(parts, styles.DimBadgeStyle.Render(label))
		}
	}
	mt := f.MediaType
	if mt == "" {
		mt = domain.MediaTypeAll
	}
	parts = append(parts, styles.DimStyle.Render("type:"+string(mt)))
	if f.InLibrary != nil && *f.InLibrary {
		parts = append(parts, styles.AccentStyle.Render("owned"))
	}
	return strings.Join(parts, " ")
}

func badge(src domain.SearchSource) lipgloss.Style {
	switch src {
	case domain.SourceLocal:
		return styles.LocalBadge
	case domain.SourceClient:
		return styles.ClientBadge
	case domain.SourceMetadata:
		return styles.MetadataBadge
	}
	return styles.DimBadgeStyle
}

func (m *Model) renderStatus() string {
	data := m.snapshot.Data
	if strings.TrimSpace(data.Query) == "" {
		if len(data.RecentSearches) == 0 {
			return styles.DimStyle.Render("Type to search")
		}
		return styles.DimStyle.Render("Recent searches")
	}

	var parts []string
	for _, src := range domain.SearchSources {
		if !data.Filters.HasSource(src) {
			continue
		}
		bk := data.Bucket(src)
		switch {
		case bk.Loading:
			parts = append(parts, m.spinner.View()+" "+string(src))
		case bk.Error != "":
			parts = append(parts, styles.ErrorStyle.Render(fmt.Sprintf("%s: %s", src, bk.Error)))
		case bk.Done:
			parts = append(parts, styles.SuccessStyle.Render(fmt.Sprintf("%s %d", src, len(bk.Items))))
		}
	}
	line := strings.Join(parts, "  ")
	if len(data.SuggestedSearches) > 0 {
		line += "\n" + styles.DimStyle.Render("try: "+strings.Join(data.SuggestedSearches, ", "))
	}
	return line
}

func (m *Model) renderRows() string {
	type row struct {
		item    domain.SearchResultItem
		matched []int
	}
	var rows []row
	var selected int
	if m.quick {
		for _, mt := range m.matches {
			rows = append(rows, row{item: mt.Item, matched: mt.MatchedIndexes})
		}
		selected = m.cursor
	} else {
		for _, it := range m.engine.Results() {
			rows = append(rows, row{item: it})
		}
		selected = m.snapshot.Data.SelectedIndex
		if m.browsingRecent() {
			selected = m.cursor
		}
	}
	if len(rows) == 0 {
		if strings.TrimSpace(m.snapshot.Data.Query) != "" && !m.engine.Status().IsLoading {
			return styles.DimStyle.Render("No matches found")
		}
		return ""
	}

	start := 0
	if selected >= maxRows {
		start = selected - maxRows + 1
	}
	end := min(start+maxRows, len(rows))
	titleWidth := max(m.width-30, 20)

	var b strings.Builder
	for i := start; i < end; i++ {
		r := rows[i]
		base := styles.NormalItemStyle
		if i == selected {
			base = styles.SelectedItemStyle
		}

		b.WriteString(badge(r.item.Source).Render(sourceLetter(r.item.Source)))
		b.WriteString(" ")
		title := styles.Truncate(r.item.Title, titleWidth)
		b.WriteString(styles.Highlight(title, r.matched, base))
		if r.item.Year > 0 {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" (%d)", r.item.Year)))
		}
		if r.item.IsInLibrary() {
			b.WriteString(styles.SuccessStyle.Render(" ✓"))
		}
		if r.item.Subtitle != "" {
			b.WriteString(" ")
			b.WriteString(styles.SubtitleStyle.Render(styles.Truncate(r.item.Subtitle, 40)))
		}
		b.WriteString("\n")
	}
	if len(rows) > end {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("… %d more", len(rows)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func sourceLetter(src domain.SearchSource) string {
	if src == "" {
		return "?"
	}
	return strings.ToUpper(string(src)[:1])
}

// Run shows the search view until the user picks a result or quits
func Run(ctx context.Context, engine *search.Engine, query string) (*domain.SearchResultItem, error) {
	m := NewModel(ctx, engine, query)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("running search view: %w", err)
	}
	return m.Chosen(), nil
}
