//go:build !darwin && !linux && !windows

package notify

import (
	"context"
	"os/exec"
)

func desktopCommand(context.Context, Notification) *exec.Cmd { return nil }
