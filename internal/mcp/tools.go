package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"multitool/internal/config"
)

// commandOutput carries whatever the command returned.
type commandOutput struct {
	Result any `json:"result"`
}

// addCommand exposes one service command as a typed tool. The tool input is
// re-encoded and handed to the command registry, so argument names match the
// HTTP boundary.
func addCommand[In any](server *mcpsdk.Server, svc Invoker, name, description string) {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, commandOutput, error) {
		args, err := json.Marshal(input)
		if err != nil {
			return nil, commandOutput{}, fmt.Errorf("encode arguments: %w", err)
		}
		result, err := svc.Invoke(ctx, name, args)
		if err != nil {
			return nil, commandOutput{}, err
		}
		return nil, commandOutput{Result: result}, nil
	})
}

type noInput struct{}

type configInput struct {
	Config config.BackgroundServiceConfig `json:"config" jsonschema:"Background service configuration"`
}

type pathInput struct {
	Path string `json:"path" jsonschema:"Game installation folder, e.g. .../StarCitizen/LIVE"`
	Lang string `json:"lang,omitempty" jsonschema:"Language code (fr, en, ...); defaults to the configured language"`
}

type translationInput struct {
	Path            string `json:"path" jsonschema:"Game installation folder"`
	Lang            string `json:"lang,omitempty" jsonschema:"Language code; defaults to the configured language"`
	TranslationLink string `json:"translationLink" jsonschema:"URL of the translation global.ini"`
}

type settingInput struct {
	SettingType string `json:"settingType" jsonschema:"Translation variant, e.g. fr or fr-en"`
}

type selectionsInput struct {
	Data config.TranslationSelections `json:"data" jsonschema:"Translation choice per channel"`
}

type commitsInput struct {
	Owner string `json:"owner,omitempty" jsonschema:"GitHub owner; defaults to the application repository"`
	Repo  string `json:"repo,omitempty" jsonschema:"GitHub repository name"`
}

type charactersInput struct {
	Page      int    `json:"page,omitempty" jsonschema:"Page number, starting at 1"`
	OrderType string `json:"orderType,omitempty" jsonschema:"Sort order: latest or download"`
	Search    string `json:"search,omitempty" jsonschema:"Free text filter"`
}

type characterInput struct {
	CharacterPath string `json:"characterPath" jsonschema:"Path of a local .chf preset"`
}

type downloadCharacterInput struct {
	DNAURL string `json:"dnaUrl" jsonschema:"Preset download URL from the catalog"`
	Title  string `json:"title" jsonschema:"Preset title, used as the file name"`
}

type folderInput struct {
	Path string `json:"path" jsonschema:"Folder inside the game cache"`
}

func registerTools(server *mcpsdk.Server, svc Invoker) {
	// Background service
	addCommand[noInput](server, svc, "get_background_service_config", "Get the configuration the background service is running with")
	addCommand[configInput](server, svc, "set_background_service_config", "Persist and apply a configuration: syncs login auto-start and starts, stops or re-arms the poller")
	addCommand[configInput](server, svc, "save_background_service_config", "Persist a configuration; a running poller picks it up, a stopped one stays stopped")
	addCommand[noInput](server, svc, "load_background_service_config", "Read the persisted configuration without applying it")
	addCommand[noInput](server, svc, "start_background_service", "Start the background poller with the current configuration")
	addCommand[noInput](server, svc, "stop_background_service", "Stop the background poller")
	addCommand[noInput](server, svc, "force_background_poll", "Run one poll cycle now and return its report")
	addCommand[noInput](server, svc, "get_background_service_status", "Get poller state, next run and the last cycle report")

	// Auto-start
	addCommand[noInput](server, svc, "is_auto_startup_enabled", "Report whether the application starts at login")
	addCommand[noInput](server, svc, "enable_auto_startup", "Register the application to start at login")
	addCommand[noInput](server, svc, "disable_auto_startup", "Remove the login registration")
	addCommand[noInput](server, svc, "is_running_as_admin", "Report whether Multitool runs with administrator rights")
	addCommand[noInput](server, svc, "restart_as_admin", "Relaunch Multitool with administrator rights so protected installations can be written")

	// Translations
	addCommand[pathInput](server, svc, "is_game_translated", "Report whether an installation has the translation enabled")
	addCommand[translationInput](server, svc, "is_translation_up_to_date", "Compare the installed translation with the remote one")
	addCommand[translationInput](server, svc, "init_translation_files", "Install a translation into a game installation")
	addCommand[translationInput](server, svc, "update_translation", "Replace an installed translation with the remote one")
	addCommand[pathInput](server, svc, "uninstall_translation", "Remove the translation from a game installation")
	addCommand[noInput](server, svc, "get_star_citizen_versions", "List detected game installations per channel")
	addCommand[noInput](server, svc, "get_translations", "List translations offered by the community API")
	addCommand[settingInput](server, svc, "get_translation_by_setting", "Resolve the download link of a translation variant")
	addCommand[noInput](server, svc, "load_translations_selected", "Get the translation chosen for each channel")
	addCommand[selectionsInput](server, svc, "save_translations_selected", "Replace the translation chosen for each channel")

	// External data
	addCommand[commitsInput](server, svc, "get_latest_commits", "List recent commits of a GitHub repository")
	addCommand[noInput](server, svc, "fetch_rsi_news", "Fetch the RSI news feed")
	addCommand[charactersInput](server, svc, "get_characters", "Browse the character preset catalog")

	// Presets and cache
	addCommand[pathInput](server, svc, "get_character_informations", "List local character presets of an installation")
	addCommand[characterInput](server, svc, "delete_character", "Delete a local character preset")
	addCommand[characterInput](server, svc, "duplicate_character", "Copy a preset to every other installation")
	addCommand[downloadCharacterInput](server, svc, "download_character", "Download a catalog preset into every installation")
	addCommand[noInput](server, svc, "get_cache_informations", "List game cache folders with their size")
	addCommand[folderInput](server, svc, "delete_folder", "Delete one folder of the game cache")
	addCommand[noInput](server, svc, "clear_cache", "Empty the game cache")

	addCommand[noInput](server, svc, "get_build_info", "Describe the running build and its update policy")
}
