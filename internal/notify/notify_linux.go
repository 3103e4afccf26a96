//go:build linux

package notify

import (
	"context"
	"log"
	"os/exec"
)

func desktopCommand(ctx context.Context, n Notification) *exec.Cmd {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		log.Printf("[notify] notify-send not found, skipping desktop notification")
		return nil
	}
	args := []string{"--app-name=" + appName, n.Title, n.Message}
	if n.Sound {
		args = append(args, "--hint=string:sound-name:message-new-instant")
	}
	return exec.CommandContext(ctx, path, args...)
}
