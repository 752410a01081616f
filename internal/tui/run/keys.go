package run

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the run screen bindings. Stop cancels the engine; Quit only
// works once the run has finished.
type KeyMap struct {
	Stop     key.Binding
	Quit     key.Binding
	Help     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns the bindings used by ap run.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Stop:     bind("s", "stop run", "s", "ctrl+c"),
		Quit:     bind("q", "quit when done", "q", "esc"),
		Help:     bind("?", "help", "?"),
		Up:       bind("↑/k", "scroll log up", "up", "k"),
		Down:     bind("↓/j", "scroll log down", "down", "j"),
		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+d"),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Stop, k.Quit, k.Help},
		{k.Up, k.Down, k.PageUp, k.PageDown},
	}
}
