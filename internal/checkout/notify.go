package checkout

import (
	"sync"
	"time"
)

// Level is the severity a notification is shown with.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-visible, non-fatal message.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier shows a non-blocking message to the shopper.
type Notifier interface {
	Notify(level Level, message string)
}

// Navigation kinds
const (
	NavigationRoute    = "route"
	NavigationExternal = "external"
)

// Navigation is a pending move the client must perform.
type Navigation struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// Navigator moves the shopper to an in-app route or a full external URL.
type Navigator interface {
	Navigate(route string)
	Redirect(url string)
}

// Inbox records notifications and the latest navigation for a session until
// the client collects them.
type Inbox struct {
	mu    sync.Mutex
	notes []Notification
	nav   *Navigation
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// Notify queues a notification.
func (i *Inbox) Notify(level Level, message string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.notes = append(i.notes, Notification{Level: level, Message: message, At: time.Now()})
}

// Navigate records an in-app route change, replacing any pending one.
func (i *Inbox) Navigate(route string) {
	i.setNav(Navigation{Kind: NavigationRoute, Target: route})
}

// Redirect records a full-page redirect to an external URL.
func (i *Inbox) Redirect(url string) {
	i.setNav(Navigation{Kind: NavigationExternal, Target: url})
}

func (i *Inbox) setNav(nav Navigation) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.nav = &nav
}

// Drain returns and forgets the pending notifications.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	notes := i.notes
	i.notes = nil
	return notes
}

// Pending returns the notifications without consuming them.
func (i *Inbox) Pending() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Notification, len(i.notes))
	copy(out, i.notes)
	return out
}

// Navigation returns the pending navigation without consuming it.
func (i *Inbox) Navigation() *Navigation {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.nav == nil {
		return nil
	}
	nav := *i.nav
	return &nav
}

// TakeNavigation returns and forgets the pending navigation.
func (i *Inbox) TakeNavigation() *Navigation {
	i.mu.Lock()
	defer i.mu.Unlock()
	nav := i.nav
	i.nav = nil
	return nav
}
