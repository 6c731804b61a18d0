package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
	"github.com/homeshelf-tv/homeshelf/internal/homerow"
	"github.com/homeshelf-tv/homeshelf/internal/search"
	"github.com/homeshelf-tv/homeshelf/internal/tui/styles"
)

const (
	cardWidth    = 24 // Rendered card width including border
	chromeHeight = 2  // Header plus status bar
	statusTTL    = 3 * time.Second
)

// Model is the main Bubble Tea model for the home screen
type Model struct {
	coordinator *homerow.Coordinator
	filter      *search.Filter
	notifier    *UpdateNotifier
	logger      *slog.Logger
	keys        KeyMap

	ctx      context.Context
	username string

	snapshot   homerow.Snapshot
	rowCursor  int
	itemCursor map[int]int // Per-row item position, keyed by visible row index

	filtering     bool
	filterInput   textinput.Model
	filterResults []search.Result
	filterCursor  int

	spin      spinner.Model
	status    string
	statusErr bool
	showHelp  bool

	lastPlayed map[string]int64

	width  int
	height int
	ready  bool
}

// NewModel creates the home-screen model. The notifier must be wired to the
// coordinator's Subscribe before the program starts.
func NewModel(ctx context.Context, coordinator *homerow.Coordinator, filter *search.Filter, notifier *UpdateNotifier, username string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	ti := textinput.New()
	ti.Placeholder = "filter loaded titles"
	ti.Prompt = styles.FilterPromptStyle.Render("/ ")
	ti.CharLimit = 80

	return Model{
		coordinator: coordinator,
		filter:      filter,
		notifier:    notifier,
		logger:      logger,
		keys:        DefaultKeyMap(),
		ctx:         ctx,
		username:    username,
		itemCursor:  make(map[int]int),
		filterInput: ti,
		spin:        sp,
		lastPlayed:  make(map[string]int64),
	}
}

// Init starts the initial load and the snapshot pump
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitForUpdate(), m.loadCmd())
}

// waitForUpdate blocks on the coordinator notifier and pulls the latest snapshot
func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.notifier.Wait()
		return SnapshotMsg{Snapshot: m.coordinator.Snapshot()}
	}
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		m.coordinator.Load(m.ctx)
		return nil
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		m.coordinator.Reload(m.ctx)
		return StatusMsg{Message: "Refreshing..."}
	}
}

func (m Model) toggleWatchedCmd(item domain.MediaItem) tea.Cmd {
	return func() tea.Msg {
		watched := !item.IsPlayed
		if err := m.coordinator.SetWatched(m.ctx, item, watched); err != nil {
			return ErrMsg{Err: err, Context: "mark watched"}
		}
		action := "Marked unwatched"
		if watched {
			action = "Marked watched"
		}
		return MutationDoneMsg{ItemID: item.ID, Action: action}
	}
}

func (m Model) toggleFavoriteCmd(item domain.MediaItem) tea.Cmd {
	return func() tea.Msg {
		favorite := !item.Favorite
		if err := m.coordinator.SetFavorite(m.ctx, item, favorite); err != nil {
			return ErrMsg{Err: err, Context: "favorite"}
		}
		action := "Removed favorite"
		if favorite {
			action = "Added favorite"
		}
		return MutationDoneMsg{ItemID: item.ID, Action: action}
	}
}

func (m Model) lastPlayedCmd(item domain.MediaItem) tea.Cmd {
	return func() tea.Msg {
		ts, err := m.coordinator.ItemLastPlayed(m.ctx, item)
		if err != nil {
			return nil
		}
		return LastPlayedMsg{ItemID: item.ID, Timestamp: ts}
	}
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.clampCursors()
		m.filter.IndexRows(m.snapshot.Rows)
		if m.filtering {
			m.filterResults = m.filter.Filter(m.filterInput.Value())
			m.clampFilterCursor()
		}
		return m, m.waitForUpdate()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case MutationDoneMsg:
		m.status = msg.Action
		m.statusErr = false
		return m, clearStatusCmd()

	case LastPlayedMsg:
		if msg.Timestamp > 0 {
			m.lastPlayed[msg.ItemID] = msg.Timestamp
		}
		return m, nil

	case StatusMsg:
		m.status = msg.Message
		m.statusErr = msg.IsError
		return m, clearStatusCmd()

	case ClearStatusMsg:
		m.status = ""
		m.statusErr = false
		return m, nil

	case ErrMsg:
		m.logger.Warn("tui action failed", "error", msg.Err, "context", msg.Context)
		m.status = msg.Error()
		m.statusErr = true
		return m, clearStatusCmd()

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

// updateBrowsing handles keys in the normal row-browsing state
func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.rowCursor > 0 {
			m.rowCursor--
		}
		return m, m.selectionChanged()

	case key.Matches(msg, m.keys.Down):
		if m.rowCursor < len(m.snapshot.Rows)-1 {
			m.rowCursor++
		}
		return m, m.selectionChanged()

	case key.Matches(msg, m.keys.Home):
		m.rowCursor = 0
		return m, m.selectionChanged()

	case key.Matches(msg, m.keys.End):
		if n := len(m.snapshot.Rows); n > 0 {
			m.rowCursor = n - 1
		}
		return m, m.selectionChanged()

	case key.Matches(msg, m.keys.Left):
		if m.itemCursor[m.rowCursor] > 0 {
			m.itemCursor[m.rowCursor]--
		}
		return m, m.selectionChanged()

	case key.Matches(msg, m.keys.Right):
		if row, ok := m.currentRow(); ok && m.itemCursor[m.rowCursor] < len(row.Items)-1 {
			m.itemCursor[m.rowCursor]++
		}
		return m, m.selectionChanged()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reloadCmd()

	case key.Matches(msg, m.keys.ToggleWatched):
		if item, ok := m.selectedItem(); ok && item.Kind != domain.KindCollectionLink {
			return m, m.toggleWatchedCmd(item)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleFavorite):
		if item, ok := m.selectedItem(); ok && item.Kind != domain.KindCollectionLink {
			return m, m.toggleFavoriteCmd(item)
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.SetValue("")
		m.filterResults = nil
		m.filterCursor = 0
		return m, m.filterInput.Focus()
	}

	return m, nil
}

// updateFiltering handles keys while the filter bar is open
func (m Model) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.filtering = false
		m.filterInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.filterCursor < len(m.filterResults) {
			result := m.filterResults[m.filterCursor]
			m.rowCursor = result.RowIndex
			m.itemCursor[result.RowIndex] = result.ItemIndex
			m.filtering = false
			m.filterInput.Blur()
			return m, m.selectionChanged()
		}
		return m, nil

	case msg.Type == tea.KeyUp:
		if m.filterCursor > 0 {
			m.filterCursor--
		}
		return m, nil

	case msg.Type == tea.KeyDown:
		if m.filterCursor < len(m.filterResults)-1 {
			m.filterCursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterResults = m.filter.Filter(m.filterInput.Value())
	m.clampFilterCursor()
	return m, cmd
}

// selectionChanged kicks off the last-played lookup for the newly selected episode
func (m Model) selectionChanged() tea.Cmd {
	item, ok := m.selectedItem()
	if !ok || item.Kind != domain.KindEpisode || item.SeriesID == "" {
		return nil
	}
	if _, cached := m.lastPlayed[item.ID]; cached {
		return nil
	}
	return m.lastPlayedCmd(item)
}

func (m *Model) clampCursors() {
	if m.rowCursor >= len(m.snapshot.Rows) {
		m.rowCursor = len(m.snapshot.Rows) - 1
	}
	if m.rowCursor < 0 {
		m.rowCursor = 0
	}
	for i, row := range m.snapshot.Rows {
		if m.itemCursor[i] >= len(row.Items) {
			if len(row.Items) == 0 {
				m.itemCursor[i] = 0
			} else {
				m.itemCursor[i] = len(row.Items) - 1
			}
		}
	}
}

func (m *Model) clampFilterCursor() {
	if m.filterCursor >= len(m.filterResults) {
		m.filterCursor = 0
	}
}

func (m Model) currentRow() (domain.RowState, bool) {
	if m.rowCursor < 0 || m.rowCursor >= len(m.snapshot.Rows) {
		return domain.RowState{}, false
	}
	return m.snapshot.Rows[m.rowCursor], true
}

func (m Model) selectedItem() (domain.MediaItem, bool) {
	row, ok := m.currentRow()
	if !ok || row.Phase != domain.RowSuccess || len(row.Items) == 0 {
		return domain.MediaItem{}, false
	}
	idx := m.itemCursor[m.rowCursor]
	if idx >= len(row.Items) {
		idx = len(row.Items) - 1
	}
	return row.Items[idx], true
}

// View renders the home screen
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.filtering {
		b.WriteString(m.renderFilter())
	} else {
		b.WriteString(m.renderRows())
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("Homeshelf")
	user := styles.DimStyle.Render(m.username)
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(user) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + title + strings.Repeat(" ", gap) + user
}

// renderRows renders the visible band of rows around the cursor
func (m Model) renderRows() string {
	if len(m.snapshot.Rows) == 0 {
		if m.snapshot.State == homerow.ScreenError && m.snapshot.Err != nil {
			return "\n " + styles.ErrorStyle.Render(m.snapshot.Err.Error()) + "\n"
		}
		if m.snapshot.State == homerow.ScreenLoading {
			return "\n " + m.spin.View() + styles.DimStyle.Render(" loading home screen...") + "\n"
		}
		return "\n " + styles.DimStyle.Render("Nothing to show. Press r to refresh.") + "\n"
	}

	// Each rendered row occupies its title line plus a three-line card band
	rowHeight := 5
	visibleRows := (m.height - chromeHeight - 1) / rowHeight
	if visibleRows < 1 {
		visibleRows = 1
	}

	start := 0
	if m.rowCursor >= visibleRows {
		start = m.rowCursor - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(m.snapshot.Rows) {
		end = len(m.snapshot.Rows)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i, m.snapshot.Rows[i]))
	}
	return b.String()
}

func (m Model) renderRow(index int, row domain.RowState) string {
	selected := index == m.rowCursor

	title := row.Title
	if row.Phase == domain.RowSuccess {
		title = fmt.Sprintf("%s (%d)", row.Title, len(row.Items))
	}

	var header string
	if selected {
		header = " " + styles.RowTitleStyle.Render(title)
	} else {
		header = " " + styles.SubtitleStyle.Render(title)
	}

	var body string
	switch row.Phase {
	case domain.RowPending, domain.RowLoading:
		body = "  " + m.spin.View() + styles.DimStyle.Render(" loading...")
	case domain.RowError:
		body = "  " + styles.ErrorStyle.Render(row.Message)
	case domain.RowSuccess:
		body = m.renderItems(index, row)
	}

	return header + "\n" + body + "\n"
}

// renderItems renders a horizontal window of item cards for one row
func (m Model) renderItems(rowIndex int, row domain.RowState) string {
	perScreen := m.width / cardWidth
	if perScreen < 1 {
		perScreen = 1
	}

	cursor := m.itemCursor[rowIndex]
	start := 0
	if cursor >= perScreen {
		start = cursor - perScreen + 1
	}
	end := start + perScreen
	if end > len(row.Items) {
		end = len(row.Items)
	}

	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		cards = append(cards, m.renderCard(row.Items[i], rowIndex == m.rowCursor && i == cursor))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m Model) renderCard(item domain.MediaItem, selected bool) string {
	innerWidth := cardWidth - 4

	title := styles.Truncate(item.DisplayTitle(), innerWidth)

	var meta string
	switch item.Kind {
	case domain.KindEpisode:
		meta = item.EpisodeCode()
	case domain.KindCollectionLink:
		meta = "browse"
	default:
		if item.Year > 0 {
			meta = fmt.Sprintf("%d", item.Year)
		}
	}

	indicators := styles.RenderWatchStatus(item.IsPlayed, item.Position > 0)
	if item.Favorite {
		indicators += " " + styles.FavoriteMark
	}

	var second string
	if item.ShouldResume() && item.Duration > 0 {
		percent := float64(item.Position) / float64(item.Duration) * 100
		second = styles.RenderProgressBar(percent, innerWidth-2)
	} else {
		gap := innerWidth - lipgloss.Width(meta) - lipgloss.Width(indicators)
		if gap < 1 {
			gap = 1
		}
		second = styles.DimStyle.Render(meta) + strings.Repeat(" ", gap) + indicators
	}

	content := title + "\n" + second
	if selected {
		return styles.CardSelectedStyle.Render(content)
	}
	return styles.CardStyle.Render(content)
}

// renderFilter renders the filter bar and its result list
func (m Model) renderFilter() string {
	var b strings.Builder
	b.WriteString(" " + m.filterInput.View() + "\n\n")

	maxResults := m.height - chromeHeight - 3
	if maxResults < 1 {
		maxResults = 1
	}

	if len(m.filterResults) == 0 && m.filterInput.Value() != "" {
		b.WriteString("  " + styles.DimStyle.Render("no matches") + "\n")
	}

	for i, result := range m.filterResults {
		if i >= maxResults {
			b.WriteString("  " + styles.DimStyle.Render(fmt.Sprintf("...and %d more", len(m.filterResults)-maxResults)) + "\n")
			break
		}

		line := fmt.Sprintf("%s  %s",
			result.Item.DisplayTitle(),
			styles.DimStyle.Render(result.RowTitle))
		if i == m.filterCursor {
			line = styles.MatchHighlightStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(" " + line + "\n")
	}

	return b.String()
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.status != "" && m.statusErr:
		left = styles.StatusErrorStyle.Render(m.status)
	case m.status != "":
		left = styles.StatusBarStyle.Render(m.status)
	case m.snapshot.State == homerow.ScreenLoading:
		left = styles.StatusBarStyle.Render(m.spin.View() + " loading")
	default:
		left = styles.StatusBarStyle.Render(m.selectionSummary())
	}

	hint := styles.DimStyle.Render("?: help  q: quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hint) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + hint
}

// selectionSummary describes the selected item in the status bar
func (m Model) selectionSummary() string {
	item, ok := m.selectedItem()
	if !ok {
		return ""
	}

	parts := []string{item.DisplayTitle()}
	if item.Duration > 0 {
		parts = append(parts, item.FormattedDuration())
	}
	if item.Rating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f", item.Rating))
	}
	if ts, ok := m.lastPlayed[item.ID]; ok && ts > 0 {
		parts = append(parts, "last watched "+time.Unix(ts, 0).Format("Jan 2"))
	}
	return strings.Join(parts, "  ·  ")
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"j/k or ↑/↓", "move between rows"},
		{"h/l or ←/→", "move within a row"},
		{"g / G", "first / last row"},
		{"/", "filter loaded titles"},
		{"w", "toggle watched"},
		{"f", "toggle favorite"},
		{"r", "refresh all rows"},
		{"esc", "close filter or help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString("\n " + styles.TitleStyle.Render("Keyboard Shortcuts") + "\n\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			styles.HelpKeyStyle.Render(fmt.Sprintf("%-12s", row[0])),
			styles.HelpDescStyle.Render(row[1])))
	}
	return b.String()
}
