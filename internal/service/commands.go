package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"multitool/internal/config"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidArgs    = errors.New("invalid arguments")
)

// Command runs one named operation with its JSON arguments.
type Command func(ctx context.Context, s *Service, args json.RawMessage) (any, error)

// linkArg accepts either a plain URL or a {"link": ...} object; the UI sends
// both shapes for translationLink.
type linkArg string

func (l *linkArg) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Link *string `json:"link"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Link != nil {
			*l = linkArg(*obj.Link)
		}
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		*l = linkArg(*s)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
	Lang string `json:"lang"`
}

type linkArgs struct {
	Path            string  `json:"path"`
	Lang            string  `json:"lang"`
	TranslationLink linkArg `json:"translationLink"`
}

type configArgs struct {
	Config config.BackgroundServiceConfig `json:"config"`
}

func decode[T any](args json.RawMessage, required ...string) (T, error) {
	var v T
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if len(required) > 0 {
		var present map[string]json.RawMessage
		_ = json.Unmarshal(args, &present)
		for _, k := range required {
			if raw, ok := present[k]; !ok || string(raw) == "null" {
				return v, fmt.Errorf("%w: missing %q", ErrInvalidArgs, k)
			}
		}
	}
	return v, nil
}

func done(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return true, nil
}

var registry = map[string]Command{
	"get_background_service_config": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.GetConfig(), nil
	},
	"set_background_service_config": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[configArgs](args, "config")
		if err != nil {
			return nil, err
		}
		return done(s.SetConfig(a.Config))
	},
	"save_background_service_config": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[configArgs](args, "config")
		if err != nil {
			return nil, err
		}
		return done(s.SaveConfig(a.Config))
	},
	"load_background_service_config": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.LoadConfig()
	},
	"start_background_service": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return done(s.StartBackground())
	},
	"stop_background_service": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		s.StopBackground()
		return true, nil
	},
	"force_background_poll": func(ctx context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.ForcePoll(ctx)
	},
	"get_background_service_status": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.Status(), nil
	},
	"is_auto_startup_enabled": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.IsAutoStartEnabled()
	},
	"enable_auto_startup": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return done(s.EnableAutoStart())
	},
	"disable_auto_startup": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return done(s.DisableAutoStart())
	},
	"is_running_as_admin": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.IsRunningAsAdmin(), nil
	},
	"restart_as_admin": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return done(s.RestartAsAdmin())
	},
	"is_game_translated": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[pathArgs](args, "path")
		if err != nil {
			return nil, err
		}
		return s.IsGameTranslated(a.Path, a.Lang), nil
	},
	"is_translation_up_to_date": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[linkArgs](args, "path", "translationLink")
		if err != nil {
			return nil, err
		}
		return s.IsTranslationUpToDate(ctx, a.Path, string(a.TranslationLink), a.Lang)
	},
	"init_translation_files": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[linkArgs](args, "path", "translationLink")
		if err != nil {
			return nil, err
		}
		return done(s.InitTranslationFiles(ctx, a.Path, a.Lang, string(a.TranslationLink)))
	},
	"update_translation": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[linkArgs](args, "path", "translationLink")
		if err != nil {
			return nil, err
		}
		return done(s.UpdateTranslation(ctx, a.Path, a.Lang, string(a.TranslationLink)))
	},
	"uninstall_translation": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[pathArgs](args, "path")
		if err != nil {
			return nil, err
		}
		return done(s.UninstallTranslation(a.Path))
	},
	"get_star_citizen_versions": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.Versions()
	},
	"get_translations": func(ctx context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.Translations(ctx)
	},
	"get_translation_by_setting": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			SettingType string `json:"settingType"`
		}](args, "settingType")
		if err != nil {
			return nil, err
		}
		return s.TranslationBySetting(ctx, a.SettingType)
	},
	"load_translations_selected": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.LoadTranslationsSelected()
	},
	"save_translations_selected": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Data config.TranslationSelections `json:"data"`
		}](args, "data")
		if err != nil {
			return nil, err
		}
		return done(s.SaveTranslationsSelected(a.Data))
	},
	"get_latest_commits": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Owner string `json:"owner"`
			Repo  string `json:"repo"`
		}](args)
		if err != nil {
			return nil, err
		}
		return s.LatestCommits(ctx, a.Owner, a.Repo)
	},
	"fetch_rsi_news": func(ctx context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.News(ctx)
	},
	"get_characters": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Page      int    `json:"page"`
			OrderType string `json:"orderType"`
			Search    string `json:"search"`
		}](args)
		if err != nil {
			return nil, err
		}
		return s.Characters(ctx, a.Page, a.OrderType, a.Search)
	},
	"get_character_informations": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[pathArgs](args, "path")
		if err != nil {
			return nil, err
		}
		return s.CharacterInformations(a.Path)
	},
	"delete_character": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Path string `json:"characterPath"`
		}](args, "characterPath")
		if err != nil {
			return nil, err
		}
		return done(s.DeleteCharacter(a.Path))
	},
	"duplicate_character": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Path string `json:"characterPath"`
		}](args, "characterPath")
		if err != nil {
			return nil, err
		}
		return s.DuplicateCharacter(a.Path)
	},
	"download_character": func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			DNAURL string `json:"dnaUrl"`
			Title  string `json:"title"`
		}](args, "dnaUrl", "title")
		if err != nil {
			return nil, err
		}
		return s.DownloadCharacter(ctx, a.DNAURL, a.Title)
	},
	"get_cache_informations": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.CacheInformations()
	},
	"delete_folder": func(_ context.Context, s *Service, args json.RawMessage) (any, error) {
		a, err := decode[pathArgs](args, "path")
		if err != nil {
			return nil, err
		}
		return done(s.DeleteFolder(a.Path))
	},
	"clear_cache": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return done(s.ClearCache())
	},
	"get_build_info": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.BuildInfo(), nil
	},
}

// Names lists every invocable command, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command. args may be empty for commands without
// parameters.
func (s *Service) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	cmd, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd(ctx, s, args)
}
