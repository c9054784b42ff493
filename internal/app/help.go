package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/vidyasagar/tabroll/internal/roller"
)

// Cached glamour renderer, rebuilt when the width changes.
var (
	cachedRenderer      *glamour.TermRenderer
	cachedRendererWidth int
	rendererMu          sync.Mutex
)

// helpMarkdown describes the key bindings and commands as markdown.
func helpMarkdown(keys KeyMap) string {
	var sb strings.Builder
	sb.WriteString("# tabroll\n\n")
	sb.WriteString("Every normal window remembers the order its tabs were activated in. ")
	sb.WriteString("Rolling back activates the previous tab; rolling forward undoes that. ")
	sb.WriteString("Activating a tab yourself clears the forward stack. ")
	sb.WriteString("Popup windows are never tracked.\n\n")
	sb.WriteString("Click **◀ back** in the status bar to roll back with the mouse.\n\n")

	for _, section := range keys.sections() {
		fmt.Fprintf(&sb, "## %s\n\n", section.name)
		sb.WriteString("| Key | Action |\n|---|---|\n")
		for _, b := range section.bindings {
			h := b.Help()
			fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Commands\n\n")
	sb.WriteString("Type `:` followed by a command.\n\n")
	for _, c := range roller.Commands {
		fmt.Fprintf(&sb, "- `:%s`\n", c)
	}
	sb.WriteString("- `:open <url>` opens a tab\n")
	sb.WriteString("- `:theme <name>` switches theme\n")
	sb.WriteString("- `:quit`\n")
	return sb.String()
}

// renderHelp renders the help page for the given width. On renderer failure
// the raw markdown is returned.
func renderHelp(keys KeyMap, width int) string {
	md := helpMarkdown(keys)
	if width <= 0 {
		width = 80
	}

	rendererMu.Lock()
	defer rendererMu.Unlock()

	if cachedRenderer == nil || cachedRendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		cachedRenderer = r
		cachedRendererWidth = width
	}

	out, err := cachedRenderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
