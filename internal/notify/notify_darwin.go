//go:build darwin

package notify

import (
	"context"
	"fmt"
	"os/exec"
)

func desktopCommand(ctx context.Context, n Notification) *exec.Cmd {
	script := fmt.Sprintf(`display notification %q with title %q subtitle %q`, n.Message, n.Title, appName)
	if n.Sound {
		script += ` sound name "default"`
	}
	return exec.CommandContext(ctx, "osascript", "-e", script)
}
