package console

import "github.com/charmbracelet/lipgloss"

var (
	colorFound   = lipgloss.Color("#10b981") // green-500
	colorError   = lipgloss.Color("#ef4444") // red-500
	colorNotice  = lipgloss.Color("#eab308") // yellow-500
	colorRunning = lipgloss.Color("#06b6d4") // cyan-500

	colorDim    = lipgloss.Color("#6b7280") // gray-500
	colorMuted  = lipgloss.Color("#9ca3af") // gray-400
	colorAccent = lipgloss.Color("#3b82f6") // blue-500
)

// Styles holds the lipgloss styles used by the console and the CLI summaries.
type Styles struct {
	Found   lipgloss.Style
	Notice  lipgloss.Style
	Error   lipgloss.Style
	Running lipgloss.Style

	Dim      lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Title    lipgloss.Style
	Question lipgloss.Style
	Value    lipgloss.Style

	SymbolFound   string
	SymbolNotice  string
	SymbolError   string
	SymbolPointer string
}

// DefaultStyles returns the default console styles.
func DefaultStyles() *Styles {
	return &Styles{
		Found:   lipgloss.NewStyle().Foreground(colorFound).Bold(true),
		Notice:  lipgloss.NewStyle().Foreground(colorNotice).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Running: lipgloss.NewStyle().Foreground(colorRunning).Bold(true),

		Dim:      lipgloss.NewStyle().Foreground(colorDim),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Bold:     lipgloss.NewStyle().Bold(true),
		Title:    lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		Question: lipgloss.NewStyle().Foreground(lipgloss.Color("#f8fafc")), // slate-50
		Value:    lipgloss.NewStyle().Foreground(colorAccent),

		SymbolFound:   "✓",
		SymbolNotice:  "!",
		SymbolError:   "✗",
		SymbolPointer: "❯",
	}
}

// SpinnerFrames returns the braille spinner animation frames.
func SpinnerFrames() []string {
	return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
}
