//go:build !windows

package commands

import (
	"os"
	"os/signal"
	"syscall"
)

// notifySignals delivers the signals that stop `multitool serve` to ch:
// interrupt, and SIGTERM from service managers.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
