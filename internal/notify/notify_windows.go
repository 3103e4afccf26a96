//go:build windows

package notify

import (
	"context"
	"fmt"
	"os/exec"
)

// toastScript shows a ToastText02 toast through PowerShell's WinRT bridge
// (Windows 10+).
const toastScript = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$text = $template.GetElementsByTagName("text")
$text.Item(0).AppendChild($template.CreateTextNode(%q)) > $null
$text.Item(1).AppendChild($template.CreateTextNode(%q)) > $null
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%q).Show([Windows.UI.Notifications.ToastNotification]::new($template))
`

func desktopCommand(ctx context.Context, n Notification) *exec.Cmd {
	script := fmt.Sprintf(toastScript, n.Title, n.Message, appName)
	return exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-WindowStyle", "Hidden", "-Command", script)
}
