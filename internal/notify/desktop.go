package notify

import (
	"context"
	"log"
	"os/exec"
	"time"
)

// desktopTimeout bounds one OS notifier invocation; a hung notification
// daemon must not stall the poll cycle that reports through it.
const desktopTimeout = 10 * time.Second

// appName is shown as the notification source.
const appName = "MultitoolV2"

// desktopNotifier runs the platform command built by desktopCommand.
type desktopNotifier struct {
	command func(ctx context.Context, n Notification) *exec.Cmd
}

// NewDesktopNotifier returns a platform-specific desktop notification sender.
// Platforms without a notifier get one that does nothing.
func NewDesktopNotifier() Notifier {
	return &desktopNotifier{command: desktopCommand}
}

// Send never fails the caller: a missing or broken notifier is logged only.
func (d *desktopNotifier) Send(n Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), desktopTimeout)
	defer cancel()

	cmd := d.command(ctx, n)
	if cmd == nil {
		return nil
	}
	if err := cmd.Run(); err != nil {
		log.Printf("[notify] desktop notification failed: %v", err)
	}
	return nil
}

func (d *desktopNotifier) Name() string { return "desktop" }
