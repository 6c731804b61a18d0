package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	JellyBlue   = lipgloss.Color("#00A4DC")
	JellyPurple = lipgloss.Color("#AA5CC3")
	SlateDark   = lipgloss.Color("#1F2937")
	SlateLight  = lipgloss.Color("#374151")
	DimGray     = lipgloss.Color("#6B7280")
	LightGray   = lipgloss.Color("#9CA3AF")
	White       = lipgloss.Color("#F9FAFB")
	Green       = lipgloss.Color("#10B981")
	Red         = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	RowTitleStyle = lipgloss.NewStyle().
			Foreground(JellyBlue).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(JellyPurple)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Raw watch status characters (unstyled)
const (
	UnplayedChar   = "●"
	InProgressChar = "◐"
	PlayedChar     = "✓"
	FavoriteChar   = "♥"
)

// Pre-rendered watch status indicators
var (
	UnplayedDot   = lipgloss.NewStyle().Foreground(JellyBlue).Render(UnplayedChar)
	InProgressDot = lipgloss.NewStyle().Foreground(JellyPurple).Render(InProgressChar)
	PlayedCheck   = lipgloss.NewStyle().Foreground(Green).Render(PlayedChar)
	FavoriteMark  = lipgloss.NewStyle().Foreground(Red).Render(FavoriteChar)
)

// Card styles for row items
var (
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1).
			Width(22)

	CardSelectedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(JellyBlue).
				Padding(0, 1).
				Width(22)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateDark).
			Padding(0, 1)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(Red).
				Background(SlateDark).
				Padding(0, 1)
)

// Filter bar styles
var (
	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(JellyBlue).
				Bold(true)

	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(JellyBlue).
				Bold(true)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(JellyBlue)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Spinner style
var SpinnerStyle = lipgloss.NewStyle().Foreground(JellyPurple)

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// RenderWatchStatus renders the watch status indicator for an item
func RenderWatchStatus(isPlayed bool, inProgress bool) string {
	if isPlayed {
		return PlayedCheck
	}
	if inProgress {
		return InProgressDot
	}
	return UnplayedDot
}

// RenderProgressBar renders a playback progress bar
func RenderProgressBar(percent float64, width int) string {
	if width < 3 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}

	full := lipgloss.NewStyle().Foreground(JellyBlue)
	empty := lipgloss.NewStyle().Foreground(DimGray)

	bar := ""
	for i := 0; i < filled; i++ {
		bar += full.Render("█")
	}
	for i := filled; i < width; i++ {
		bar += empty.Render("░")
	}
	return bar
}
