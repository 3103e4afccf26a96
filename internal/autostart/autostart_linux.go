package autostart

func newPlatform(target Target) Manager {
	return NewDesktopEntry(DesktopEntryPath(), target)
}
