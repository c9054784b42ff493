package theme

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name string

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Text       lipgloss.Color
	TextDim    lipgloss.Color
	TextBright lipgloss.Color

	Background  lipgloss.Color
	Surface     lipgloss.Color
	Border      lipgloss.Color
	BorderFocus lipgloss.Color

	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color

	TabActive   lipgloss.Color
	TabInactive lipgloss.Color

	// Stack panel entries.
	StackBack    lipgloss.Color
	StackForward lipgloss.Color
}

var themes = map[string]Theme{
	"default":    Default,
	"gruvbox":    Gruvbox,
	"catppuccin": Catppuccin,
	"nord":       Nord,
	"dracula":    Dracula,
}

var Default = Theme{
	Name:         "default",
	Primary:      lipgloss.Color("#7C3AED"),
	Secondary:    lipgloss.Color("#06B6D4"),
	Accent:       lipgloss.Color("#F59E0B"),
	Text:         lipgloss.Color("#E2E8F0"),
	TextDim:      lipgloss.Color("#64748B"),
	TextBright:   lipgloss.Color("#F8FAFC"),
	Background:   lipgloss.Color("#0F172A"),
	Surface:      lipgloss.Color("#1E293B"),
	Border:       lipgloss.Color("#334155"),
	BorderFocus:  lipgloss.Color("#7C3AED"),
	Error:        lipgloss.Color("#EF4444"),
	Success:      lipgloss.Color("#22C55E"),
	Warning:      lipgloss.Color("#F59E0B"),
	Info:         lipgloss.Color("#3B82F6"),
	TabActive:    lipgloss.Color("#7C3AED"),
	TabInactive:  lipgloss.Color("#475569"),
	StackBack:    lipgloss.Color("#A78BFA"),
	StackForward: lipgloss.Color("#34D399"),
}

var Gruvbox = Theme{
	Name:         "gruvbox",
	Primary:      lipgloss.Color("#D65D0E"),
	Secondary:    lipgloss.Color("#458588"),
	Accent:       lipgloss.Color("#D79921"),
	Text:         lipgloss.Color("#EBDBB2"),
	TextDim:      lipgloss.Color("#928374"),
	TextBright:   lipgloss.Color("#FBF1C7"),
	Background:   lipgloss.Color("#282828"),
	Surface:      lipgloss.Color("#3C3836"),
	Border:       lipgloss.Color("#504945"),
	BorderFocus:  lipgloss.Color("#D65D0E"),
	Error:        lipgloss.Color("#FB4934"),
	Success:      lipgloss.Color("#B8BB26"),
	Warning:      lipgloss.Color("#FABD2F"),
	Info:         lipgloss.Color("#83A598"),
	TabActive:    lipgloss.Color("#D65D0E"),
	TabInactive:  lipgloss.Color("#665C54"),
	StackBack:    lipgloss.Color("#FE8019"),
	StackForward: lipgloss.Color("#B8BB26"),
}

var Catppuccin = Theme{
	Name:         "catppuccin",
	Primary:      lipgloss.Color("#CBA6F7"),
	Secondary:    lipgloss.Color("#89DCEB"),
	Accent:       lipgloss.Color("#F9E2AF"),
	Text:         lipgloss.Color("#CDD6F4"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextBright:   lipgloss.Color("#F5E0DC"),
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	Border:       lipgloss.Color("#45475A"),
	BorderFocus:  lipgloss.Color("#CBA6F7"),
	Error:        lipgloss.Color("#F38BA8"),
	Success:      lipgloss.Color("#A6E3A1"),
	Warning:      lipgloss.Color("#F9E2AF"),
	Info:         lipgloss.Color("#89B4FA"),
	TabActive:    lipgloss.Color("#CBA6F7"),
	TabInactive:  lipgloss.Color("#585B70"),
	StackBack:    lipgloss.Color("#F5C2E7"),
	StackForward: lipgloss.Color("#A6E3A1"),
}

var Nord = Theme{
	Name:         "nord",
	Primary:      lipgloss.Color("#88C0D0"),
	Secondary:    lipgloss.Color("#81A1C1"),
	Accent:       lipgloss.Color("#EBCB8B"),
	Text:         lipgloss.Color("#ECEFF4"),
	TextDim:      lipgloss.Color("#4C566A"),
	TextBright:   lipgloss.Color("#ECEFF4"),
	Background:   lipgloss.Color("#2E3440"),
	Surface:      lipgloss.Color("#3B4252"),
	Border:       lipgloss.Color("#434C5E"),
	BorderFocus:  lipgloss.Color("#88C0D0"),
	Error:        lipgloss.Color("#BF616A"),
	Success:      lipgloss.Color("#A3BE8C"),
	Warning:      lipgloss.Color("#EBCB8B"),
	Info:         lipgloss.Color("#5E81AC"),
	TabActive:    lipgloss.Color("#88C0D0"),
	TabInactive:  lipgloss.Color("#4C566A"),
	StackBack:    lipgloss.Color("#B48EAD"),
	StackForward: lipgloss.Color("#A3BE8C"),
}

var Dracula = Theme{
	Name:         "dracula",
	Primary:      lipgloss.Color("#BD93F9"),
	Secondary:    lipgloss.Color("#8BE9FD"),
	Accent:       lipgloss.Color("#F1FA8C"),
	Text:         lipgloss.Color("#F8F8F2"),
	TextDim:      lipgloss.Color("#6272A4"),
	TextBright:   lipgloss.Color("#F8F8F2"),
	Background:   lipgloss.Color("#282A36"),
	Surface:      lipgloss.Color("#44475A"),
	Border:       lipgloss.Color("#6272A4"),
	BorderFocus:  lipgloss.Color("#BD93F9"),
	Error:        lipgloss.Color("#FF5555"),
	Success:      lipgloss.Color("#50FA7B"),
	Warning:      lipgloss.Color("#F1FA8C"),
	Info:         lipgloss.Color("#8BE9FD"),
	TabActive:    lipgloss.Color("#BD93F9"),
	TabInactive:  lipgloss.Color("#6272A4"),
	StackBack:    lipgloss.Color("#FF79C6"),
	StackForward: lipgloss.Color("#50FA7B"),
}

// Current is the active theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	if t, ok := themes[name]; ok {
		Current = t
		return true
	}
	return false
}

// List returns all available theme names, sorted.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Next returns the theme after the current one in List order.
func Next() string {
	names := List()
	i := slices.Index(names, Current.Name)
	return names[(i+1)%len(names)]
}
