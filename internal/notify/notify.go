package notify

import (
	"strings"

	"multitool/internal/config"
)

// Notification is a short user-facing message about a background action.
type Notification struct {
	Title   string
	Message string
	Sound   bool
}

// Notifier sends notifications.
type Notifier interface {
	Send(n Notification) error
	Name() string
}

// FromSettings builds the notifier chain described by s. It never returns nil.
func FromSettings(s config.NotificationSettings) Notifier {
	var ns []Notifier
	if s.Desktop {
		ns = append(ns, NewDesktopNotifier())
	}
	if s.WebhookURL != "" {
		ns = append(ns, NewWebhookNotifier(s.WebhookURL, s.WebhookFormat, s.WebhookTemplate))
	}
	if s.HookScript != "" {
		ns = append(ns, NewHookRunner(s.HookScript))
	}
	return NewMultiNotifier(ns...)
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier from the given notifiers.
func NewMultiNotifier(ns ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: ns}
}

// Send dispatches to every notifier and returns the first error.
func (m *MultiNotifier) Send(n Notification) error {
	var firstErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Name lists the wrapped notifiers.
func (m *MultiNotifier) Name() string {
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Len is the number of wrapped notifiers.
func (m *MultiNotifier) Len() int { return len(m.notifiers) }
