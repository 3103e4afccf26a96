package commands

import (
	"context"
	"fmt"
	"time"

	"multitool/internal/buildinfo"
	"multitool/internal/output"
	"multitool/internal/service"
	"multitool/internal/ui"
	"multitool/internal/update"
)

func RunVersion() {
	info := buildinfo.Current()
	output.Print(info, func() {
		hash := info.BuildHash
		if hash == "" {
			hash = "unknown"
		}
		date := info.BuildDate
		if date == "" {
			date = "unknown"
		}
		fmt.Printf("multitool version %s (%s, commit %s, built %s)\n", info.Version, info.Distribution, hash, date)
	})
}

// RunSelfUpdate checks GitHub for a newer release and, unless checkOnly,
// downloads and installs it over the running executable.
func RunSelfUpdate(checkOnly bool) {
	svc, err := service.Open()
	if err != nil {
		output.PrintError(err)
	}
	defer svc.Close()
	checker := svc.Updater()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if checkOnly {
		release, err := checker.Latest(ctx)
		if err != nil {
			output.PrintError(err)
		}
		st := update.Status{
			Current:    checker.Build.Version,
			Latest:     release.TagName,
			ReleaseURL: release.HTMLURL,
			Available:  update.CompareVersions(checker.Build.Version, release.TagName),
			CheckedAt:  time.Now(),
		}
		output.Print(st, func() {
			if st.Available {
				ui.ShowInfo("Multitool %s is available (running %s)", st.Latest, st.Current)
				ui.ShowField("Release", st.ReleaseURL)
			} else {
				ui.ShowSuccess("Multitool %s is up to date", st.Current)
			}
		})
		return
	}

	if !output.JSONMode {
		ui.ShowHeader("Multitool self-update")
		ui.ShowLoading("Checking %s for a newer release", checker.Repo)
	}
	st, err := checker.RunSelfUpdate(ctx)
	if err != nil {
		output.PrintError(err)
	}
	output.Print(st, func() {
		if st.Current != checker.Build.Version {
			ui.ShowSuccess("Updated to %s; restart Multitool to use it", st.Current)
			return
		}
		ui.ShowSuccess("Already on the latest version (%s)", st.Current)
	})
}
