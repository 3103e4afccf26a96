package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"multitool/internal/commands"
	"multitool/internal/output"
)

var (
	jsonFlag      bool
	localFlag     bool
	minimizedFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "multitool",
	Short: "Star Citizen translation manager and background updater",
	Long:  "Keep Star Citizen translations up to date in the background, and manage presets, cache and the Multitool build",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&localFlag, "local", false, "Run in-process even when multitool serve is running")
	rootCmd.Flags().BoolVar(&minimizedFlag, "minimized", false, "Run the background service (used by the login registration)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.ServiceCmd)
	rootCmd.AddCommand(commands.AutostartCmd)
	rootCmd.AddCommand(commands.AdminCmd)
	rootCmd.AddCommand(commands.TranslationCmd)
	rootCmd.AddCommand(commands.TranslationsCmd)
	rootCmd.AddCommand(commands.VersionsCmd)
	rootCmd.AddCommand(commands.NewsCmd)
	rootCmd.AddCommand(commands.CommitsCmd)
	rootCmd.AddCommand(commands.CharactersCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.BuildInfoCmd)
	rootCmd.AddCommand(commands.UpdateCmd)
	rootCmd.AddCommand(commands.VersionCmd)

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		// The login registration launches the bare binary with --minimized.
		if minimizedFlag {
			commands.RunServe(commands.ServeOptions{Minimized: true})
			return
		}
		if jsonFlag || term.IsTerminal(int(os.Stdout.Fd())) {
			commands.RunServiceStatus()
			return
		}
		_ = cmd.Help()
	}
}

func main() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag
		commands.LocalOnly = localFlag
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
