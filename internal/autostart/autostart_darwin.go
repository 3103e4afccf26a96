package autostart

func newPlatform(target Target) Manager {
	return NewLaunchAgent(LaunchAgentPath(), target)
}
