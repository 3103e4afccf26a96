package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"multitool/internal/config"
	"multitool/internal/output"
	"multitool/internal/scheduler"
	"multitool/internal/ui"
)

func printConfig(cfg config.BackgroundServiceConfig) {
	ui.ShowField("Enabled", ui.YesNo(cfg.Enabled))
	ui.ShowField("Check interval", fmt.Sprintf("%d min", cfg.CheckIntervalMinutes))
	ui.ShowField("Auto update", ui.YesNo(cfg.AutoUpdate))
	ui.ShowField("Start with system", ui.YesNo(cfg.StartWithSystem))
	ui.ShowField("Language", cfg.Language)
}

// RunConfigShow prints the configuration the scheduler holds.
func RunConfigShow() {
	var cfg config.BackgroundServiceConfig
	invoke("get_background_service_config", nil, &cfg)
	output.Print(cfg, func() {
		ui.ShowHeader("Background service")
		printConfig(cfg)
	})
}

// RunConfigLoad prints the persisted configuration.
func RunConfigLoad() {
	var cfg config.BackgroundServiceConfig
	invoke("load_background_service_config", nil, &cfg)
	output.Print(cfg, func() {
		ui.ShowHeader("Stored configuration")
		printConfig(cfg)
	})
}

// applyConfigFlags overlays the flags the user set on cfg.
func applyConfigFlags(cmd *cobra.Command, cfg config.BackgroundServiceConfig) (config.BackgroundServiceConfig, error) {
	flags := cmd.Flags()
	if flags.Changed("enabled") {
		cfg.Enabled, _ = flags.GetBool("enabled")
	}
	if flags.Changed("interval") {
		cfg.CheckIntervalMinutes, _ = flags.GetInt("interval")
	}
	if flags.Changed("auto-update") {
		cfg.AutoUpdate, _ = flags.GetBool("auto-update")
	}
	if flags.Changed("start-with-system") {
		cfg.StartWithSystem, _ = flags.GetBool("start-with-system")
	}
	if flags.Changed("language") {
		lang, _ := flags.GetString("language")
		norm, ok := config.NormalizeLanguage(lang)
		if !ok {
			return cfg, fmt.Errorf("%w: unsupported language %q (supported: %v)", config.ErrInvalidConfig, lang, config.SupportedLanguages())
		}
		cfg.Language = norm
	}
	return cfg, cfg.Validate()
}

// RunConfigUpdate edits the stored configuration. With apply it behaves like
// set_background_service_config, otherwise like save_background_service_config.
func RunConfigUpdate(cmd *cobra.Command, apply bool) {
	var cfg config.BackgroundServiceConfig
	invoke("load_background_service_config", nil, &cfg)

	cfg, err := applyConfigFlags(cmd, cfg)
	if err != nil {
		output.PrintError(err)
	}

	name := "save_background_service_config"
	if apply {
		name = "set_background_service_config"
	}
	invoke(name, map[string]any{"config": cfg}, nil)
	output.Print(cfg, func() {
		if apply {
			ui.ShowSuccess("Configuration saved and applied")
		} else {
			ui.ShowSuccess("Configuration saved")
		}
		printConfig(cfg)
	})
}

func requireDaemon(c *client) {
	if !c.Remote() {
		output.PrintError(errNoDaemon)
	}
}

// RunServiceStart starts the scheduler of the running server.
func RunServiceStart() {
	c := openClient()
	defer c.Close()
	requireDaemon(c)
	if err := c.call(cmdContext(), "start_background_service", nil, nil); err != nil {
		output.PrintError(err)
	}
	output.Print(map[string]bool{"started": true}, func() {
		ui.ShowSuccess("Background service started")
	})
}

// RunServiceStop stops the scheduler of the running server.
func RunServiceStop() {
	c := openClient()
	defer c.Close()
	requireDaemon(c)
	if err := c.call(cmdContext(), "stop_background_service", nil, nil); err != nil {
		output.PrintError(err)
	}
	output.Print(map[string]bool{"stopped": true}, func() {
		ui.ShowSuccess("Background service stopped")
	})
}

// RunServiceStatus prints the scheduler state and the last cycle.
func RunServiceStatus() {
	c := openClient()
	defer c.Close()
	var st scheduler.Status
	if err := c.call(cmdContext(), "get_background_service_status", nil, &st); err != nil {
		output.PrintError(err)
	}
	output.Print(st, func() {
		ui.ShowHeader("Background service")
		if !c.Remote() {
			ui.ShowWarning("multitool serve is not running; showing stored state")
		}
		ui.ShowField("State", st.State)
		ui.ShowField("Polling", ui.YesNo(st.Polling))
		if st.NextRun != nil {
			ui.ShowField("Next run", st.NextRun.Local().Format(time.DateTime))
		}
		printConfig(st.Config)
		if st.LastReport != nil {
			fmt.Println()
			printReport(st.LastReport)
		}
	})
}

// RunServicePoll runs one poll cycle, on the server when one is running.
func RunServicePoll() {
	var report scheduler.Report
	invoke("force_background_poll", nil, &report)
	output.Print(report, func() {
		printReport(&report)
	})
}

func printReport(r *scheduler.Report) {
	ui.ShowInfo("Last cycle (%s) at %s, %s", r.Trigger, r.FinishedAt.Local().Format(time.DateTime), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	rows := make([][]string, 0, len(r.Channels))
	for _, ch := range r.Channels {
		rows = append(rows, []string{ch.Channel, string(ch.State), ui.YesNo(ch.Translated), ui.YesNo(ch.UpToDate), ch.Error})
	}
	if len(rows) > 0 {
		ui.ShowTable([]string{"Channel", "State", "Translated", "Up to date", "Error"}, rows)
	} else {
		ui.ShowInfo("No installation found")
	}
	if r.App != nil && r.App.Available {
		ui.ShowWarning("Multitool %s is available (running %s)", r.App.Latest, r.App.Current)
	}
	if r.AppError != "" {
		ui.ShowWarning("Update check failed: %s", r.AppError)
	}
}

// RunAutostartStatus reports whether the app starts at login.
func RunAutostartStatus() {
	var on bool
	invoke("is_auto_startup_enabled", nil, &on)
	output.Print(map[string]bool{"enabled": on}, func() {
		ui.ShowField("Start at login", ui.YesNo(on))
	})
}

// RunAutostartSet enables or disables the login registration.
func RunAutostartSet(enable bool) {
	name := "disable_auto_startup"
	if enable {
		name = "enable_auto_startup"
	}
	invoke(name, nil, nil)
	output.Print(map[string]bool{"enabled": enable}, func() {
		if enable {
			ui.ShowSuccess("Multitool will start at login")
		} else {
			ui.ShowSuccess("Multitool will no longer start at login")
		}
	})
}

// RunAdminStatus reports whether the service runs with administrator rights.
func RunAdminStatus() {
	var elevated bool
	invoke("is_running_as_admin", nil, &elevated)
	output.Print(map[string]bool{"elevated": elevated}, func() {
		ui.ShowField("Administrator", ui.YesNo(elevated))
	})
}

// RunAdminRestart relaunches the service elevated.
func RunAdminRestart() {
	invoke("restart_as_admin", nil, nil)
	output.Print(map[string]bool{"restarted": true}, func() {
		ui.ShowSuccess("Multitool is restarting as administrator")
	})
}
