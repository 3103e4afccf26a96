//go:build windows

package commands

import (
	"os"
	"os/signal"
)

// notifySignals delivers Ctrl+C to ch. Windows has no SIGTERM; a logoff
// kills the process without a signal.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
