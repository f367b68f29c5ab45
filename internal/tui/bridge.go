package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"yamo/treasury/internal/view"
)

// PageMsg carries a page computed outside the event loop, typically by the search
// debounce timer or a reload.
type PageMsg struct {
	Page view.Page
}

// ErrMsg reports a failure raised outside the event loop.
type ErrMsg struct {
	Err error
}

// Bridge forwards view callbacks to a running program. Messages posted before Attach
// are dropped.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewBridge returns a detached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes messages to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.AttachFunc(p.Send)
}

// AttachFunc routes messages to send.
func (b *Bridge) AttachFunc(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

// Render is a view.RenderFunc.
func (b *Bridge) Render(page view.Page) {
	b.post(PageMsg{Page: page})
}

// Notify is a view.NotifyFunc.
func (b *Bridge) Notify(err error) {
	b.post(ErrMsg{Err: err})
}

// post never blocks: callbacks may run on the event loop itself, where a
// synchronous Send would deadlock.
func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		go send(msg)
	}
}
