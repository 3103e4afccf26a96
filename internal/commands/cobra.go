package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"multitool/internal/config"
)

// ServeCmd runs the background process.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background update service",
	Long:  "Start the scheduler and serve the command surface over HTTP, and over MCP when stdin is a pipe",
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		noHTTP, _ := cmd.Flags().GetBool("no-http")
		minimized, _ := cmd.Flags().GetBool("minimized")
		RunServe(ServeOptions{Addr: addr, NoHTTP: noHTTP, Minimized: minimized})
	},
}

// ConfigCmd is the parent of the background configuration commands.
var ConfigCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Manage the background service configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration the scheduler holds",
	Run: func(cmd *cobra.Command, args []string) {
		RunConfigShow()
	},
}

var configLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Show the stored configuration",
	Run: func(cmd *cobra.Command, args []string) {
		RunConfigLoad()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the configuration and apply it to the running service",
	Long:  "Save the configuration, sync the start-at-login registration and reconfigure the scheduler",
	Run: func(cmd *cobra.Command, args []string) {
		RunConfigUpdate(cmd, true)
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the configuration without applying it",
	Run: func(cmd *cobra.Command, args []string) {
		RunConfigUpdate(cmd, false)
	},
}

// ServiceCmd controls the scheduler of a running `multitool serve`.
var ServiceCmd = &cobra.Command{
	Use:     "service",
	Aliases: []string{"svc"},
	Short:   "Control the background scheduler",
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler with the stored configuration",
	Run: func(cmd *cobra.Command, args []string) {
		RunServiceStart()
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the scheduler",
	Run: func(cmd *cobra.Command, args []string) {
		RunServiceStop()
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scheduler state and the last cycle",
	Run: func(cmd *cobra.Command, args []string) {
		RunServiceStatus()
	},
}

var servicePollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one check cycle now",
	Run: func(cmd *cobra.Command, args []string) {
		RunServicePoll()
	},
}

// AutostartCmd manages the start-at-login registration.
var AutostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Show whether Multitool starts at login",
	Run: func(cmd *cobra.Command, args []string) {
		RunAutostartStatus()
	},
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start Multitool at login",
	Run: func(cmd *cobra.Command, args []string) {
		RunAutostartSet(true)
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting Multitool at login",
	Run: func(cmd *cobra.Command, args []string) {
		RunAutostartSet(false)
	},
}

// AdminCmd reports and acquires administrator rights, which installations
// under Program Files need.
var AdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Show whether Multitool runs as administrator",
	Run: func(cmd *cobra.Command, args []string) {
		RunAdminStatus()
	},
}

var adminRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart Multitool with administrator rights",
	Run: func(cmd *cobra.Command, args []string) {
		RunAdminRestart()
	},
}

// TranslationCmd installs and inspects the translation of one installation.
var TranslationCmd = &cobra.Command{
	Use:     "translation",
	Aliases: []string{"tr"},
	Short:   "Install, update or remove a translation",
}

func translationFlags(cmd *cobra.Command) (lang, link string) {
	lang, _ = cmd.Flags().GetString("lang")
	link, _ = cmd.Flags().GetString("link")
	return lang, link
}

var translationStatusCmd = &cobra.Command{
	Use:   "status <path>",
	Short: "Report whether an installation is translated and up to date",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lang, link := translationFlags(cmd)
		RunTranslationStatus(args[0], link, lang)
	},
}

var translationInstallCmd = &cobra.Command{
	Use:   "install <path>",
	Short: "Install a translation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lang, link := translationFlags(cmd)
		RunTranslationInstall(args[0], link, lang)
	},
}

var translationUpdateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Replace the installed translation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lang, link := translationFlags(cmd)
		RunTranslationUpdate(args[0], link, lang)
	},
}

var translationUninstallCmd = &cobra.Command{
	Use:   "uninstall <path>",
	Short: "Remove the translation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunTranslationUninstall(args[0])
	},
}

// VersionsCmd lists the detected installations.
var VersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List detected Star Citizen installations",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersions()
	},
}

// TranslationsCmd browses the translation catalog and the per-channel selection.
var TranslationsCmd = &cobra.Command{
	Use:   "translations",
	Short: "Browse available translations",
}

var translationsListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List available translations",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		RunTranslationsList(query)
	},
}

var translationsLinkCmd = &cobra.Command{
	Use:   "link <setting-type>",
	Short: "Resolve the download link of a setting type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunTranslationLink(args[0])
	},
}

var translationsSelectedCmd = &cobra.Command{
	Use:   "selected",
	Short: "Show the translation selected per channel",
	Run: func(cmd *cobra.Command, args []string) {
		RunSelectionsShow()
	},
}

var translationsSelectCmd = &cobra.Command{
	Use:   "select <channel> [link|setting-type]",
	Short: "Select the translation of a channel, or clear it",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ref := ""
		if len(args) == 2 {
			ref = args[1]
		}
		settingsEN, _ := cmd.Flags().GetBool("settings-en")
		RunSelect(args[0], ref, settingsEN)
	},
}

// NewsCmd prints the latest RSI articles.
var NewsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show the latest RSI news",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		RunNews(limit)
	},
}

// CommitsCmd prints recent commits of a repository.
var CommitsCmd = &cobra.Command{
	Use:   "commits [owner/repo]",
	Short: "Show recent commits",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo := ""
		if len(args) == 1 {
			repo = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		RunCommits(repo, limit)
	},
}

// CharactersCmd manages character presets.
var CharactersCmd = &cobra.Command{
	Use:     "characters",
	Aliases: []string{"presets"},
	Short:   "Browse and manage character presets",
}

var charactersBrowseCmd = &cobra.Command{
	Use:   "browse [search]",
	Short: "Browse the online preset catalog",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search := ""
		if len(args) == 1 {
			search = args[0]
		}
		page, _ := cmd.Flags().GetInt("page")
		order, _ := cmd.Flags().GetString("order")
		RunCharacters(page, order, search)
	},
}

var charactersLocalCmd = &cobra.Command{
	Use:   "local <path>",
	Short: "List the presets of an installation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunPresetsList(args[0])
	},
}

var charactersDeleteCmd = &cobra.Command{
	Use:   "delete <preset-path>",
	Short: "Delete a local preset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunPresetDelete(args[0])
	},
}

var charactersDuplicateCmd = &cobra.Command{
	Use:   "duplicate <preset-path>",
	Short: "Copy a preset to every other installation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunPresetDuplicate(args[0])
	},
}

var charactersDownloadCmd = &cobra.Command{
	Use:   "download <dna-url> <title>",
	Short: "Download a catalog preset into every installation",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		RunPresetDownload(args[0], args[1])
	},
}

// CacheCmd manages the game shader cache.
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the game cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cache folders and their size",
	Run: func(cmd *cobra.Command, args []string) {
		RunCacheList()
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete one cache folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunCacheDelete(args[0])
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cache folder",
	Run: func(cmd *cobra.Command, args []string) {
		RunCacheClear()
	},
}

// BuildInfoCmd describes the running build.
var BuildInfoCmd = &cobra.Command{
	Use:   "buildinfo",
	Short: "Show the distribution and update policy of this build",
	Run: func(cmd *cobra.Command, args []string) {
		RunBuildInfo()
	},
}

// UpdateCmd updates multitool itself.
var UpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update Multitool to the latest version",
	Long:  "Check GitHub for the latest release and install it over the running executable",
	Run: func(cmd *cobra.Command, args []string) {
		check, _ := cmd.Flags().GetBool("check")
		RunSelfUpdate(check)
	},
}

// VersionCmd prints the build version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("enabled", false, "Run the background service")
	cmd.Flags().Int("interval", 0, "Minutes between two checks (min 1)")
	cmd.Flags().Bool("auto-update", false, "Install translation updates automatically")
	cmd.Flags().Bool("start-with-system", false, "Start Multitool at login")
	cmd.Flags().String("language", "", "Translation language ("+strings.Join(config.SupportedLanguages(), ", ")+")")
}

func init() {
	ServeCmd.Flags().String("addr", "", "HTTP listen address (default from settings)")
	ServeCmd.Flags().Bool("no-http", false, "Do not start the HTTP server")
	ServeCmd.Flags().Bool("minimized", false, "Started from the login registration")

	addConfigFlags(configSetCmd)
	addConfigFlags(configSaveCmd)
	ConfigCmd.AddCommand(configShowCmd, configLoadCmd, configSetCmd, configSaveCmd)

	ServiceCmd.AddCommand(serviceStartCmd, serviceStopCmd, serviceStatusCmd, servicePollCmd)
	AutostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd)
	AdminCmd.AddCommand(adminRestartCmd)

	for _, c := range []*cobra.Command{translationStatusCmd, translationInstallCmd, translationUpdateCmd} {
		c.Flags().String("lang", "", "Language folder (default from config)")
		c.Flags().String("link", "", "Translation URL or setting type such as settings-fr")
	}
	_ = translationInstallCmd.MarkFlagRequired("link")
	_ = translationUpdateCmd.MarkFlagRequired("link")
	TranslationCmd.AddCommand(translationStatusCmd, translationInstallCmd, translationUpdateCmd, translationUninstallCmd)

	translationsSelectCmd.Flags().Bool("settings-en", false, "Keep the English settings menu")
	TranslationsCmd.AddCommand(translationsListCmd, translationsLinkCmd, translationsSelectedCmd, translationsSelectCmd)

	NewsCmd.Flags().IntP("limit", "n", 10, "Number of articles (0 for all)")
	CommitsCmd.Flags().IntP("limit", "n", 10, "Number of commits (0 for all)")

	charactersBrowseCmd.Flags().Int("page", 1, "Catalog page")
	charactersBrowseCmd.Flags().String("order", "latest", "Sort order (latest, downloads, likes)")
	CharactersCmd.AddCommand(charactersBrowseCmd, charactersLocalCmd, charactersDeleteCmd, charactersDuplicateCmd, charactersDownloadCmd)

	CacheCmd.AddCommand(cacheListCmd, cacheDeleteCmd, cacheClearCmd)

	UpdateCmd.Flags().Bool("check", false, "Only report whether an update is available")
}
