// Package hotkey watches the global record key (Ctrl+Shift+R) so the
// narrator can drive takes without focusing the terminal.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
