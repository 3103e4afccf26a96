package commands

import (
	"fmt"
	"strconv"
	"strings"

	"multitool/internal/config"
	"multitool/internal/gamepath"
	"multitool/internal/gateway"
	"multitool/internal/output"
	"multitool/internal/ui"
)

// resolveLink accepts a URL or a setting type such as "settings-fr" and
// returns a download URL.
func resolveLink(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	var link gateway.TranslationLink
	invoke("get_translation_by_setting", map[string]string{"settingType": ref}, &link)
	if link.Link == "" {
		output.PrintError(fmt.Errorf("no translation for setting %q", ref))
	}
	return link.Link
}

func translationArgs(path, link, lang string) map[string]string {
	return map[string]string{"path": path, "translationLink": link, "lang": lang}
}

// RunTranslationStatus reports whether path is translated and, when a link
// is given, whether the installed pack matches it.
func RunTranslationStatus(path, ref, lang string) {
	var translated bool
	invoke("is_game_translated", map[string]string{"path": path, "lang": lang}, &translated)

	result := map[string]any{"path": path, "translated": translated}
	if ref != "" && translated {
		var upToDate bool
		invoke("is_translation_up_to_date", translationArgs(path, resolveLink(ref), lang), &upToDate)
		result["up_to_date"] = upToDate
	}
	output.Print(result, func() {
		ui.ShowField("Installation", path)
		ui.ShowField("Translated", ui.YesNo(translated))
		if v, ok := result["up_to_date"]; ok {
			ui.ShowField("Up to date", ui.YesNo(v.(bool)))
		}
	})
}

// RunTranslationInstall installs the pack into path.
func RunTranslationInstall(path, ref, lang string) {
	invoke("init_translation_files", translationArgs(path, resolveLink(ref), lang), nil)
	output.Print(map[string]any{"path": path, "installed": true}, func() {
		ui.ShowSuccess("Translation installed in %s", path)
	})
}

// RunTranslationUpdate replaces the installed pack in path.
func RunTranslationUpdate(path, ref, lang string) {
	invoke("update_translation", translationArgs(path, resolveLink(ref), lang), nil)
	output.Print(map[string]any{"path": path, "updated": true}, func() {
		ui.ShowSuccess("Translation updated in %s", path)
	})
}

// RunTranslationUninstall removes the translation from path.
func RunTranslationUninstall(path string) {
	invoke("uninstall_translation", map[string]string{"path": path}, nil)
	output.Print(map[string]any{"path": path, "uninstalled": true}, func() {
		ui.ShowSuccess("Translation removed from %s", path)
	})
}

// RunVersions lists detected installations.
func RunVersions() {
	var paths gamepath.VersionPaths
	invoke("get_star_citizen_versions", nil, &paths)
	output.Print(paths, func() {
		if len(paths.Versions) == 0 {
			ui.ShowWarning("No Star Citizen installation found")
			return
		}
		rows := make([][]string, 0, len(paths.Versions))
		for _, ch := range paths.Channels() {
			v := paths.Versions[ch]
			rows = append(rows, []string{ch, v.Path, ui.YesNo(v.Translated)})
		}
		ui.ShowTable([]string{"Channel", "Path", "Translated"}, rows)
	})
}

// RunTranslationsList lists the available translations, filtered by a fuzzy
// query when one is given.
func RunTranslationsList(query string) {
	var options []gateway.TranslationOption
	invoke("get_translations", nil, &options)
	options = gateway.FindTranslation(options, query)
	output.Print(options, func() {
		if len(options) == 0 {
			ui.ShowWarning("No translation matches %q", query)
			return
		}
		rows := make([][]string, 0, len(options))
		for _, o := range options {
			rows = append(rows, []string{strconv.FormatInt(o.ID, 10), o.Name, o.Link})
		}
		ui.ShowTable([]string{"ID", "Name", "Link"}, rows)
	})
}

// RunTranslationLink resolves the download link of a setting type.
func RunTranslationLink(settingType string) {
	var link gateway.TranslationLink
	invoke("get_translation_by_setting", map[string]string{"settingType": settingType}, &link)
	output.Print(link, func() {
		fmt.Println(link.Link)
	})
}

// RunSelectionsShow prints the translation chosen per channel.
func RunSelectionsShow() {
	var sel config.TranslationSelections
	invoke("load_translations_selected", nil, &sel)
	output.Print(sel, func() {
		if len(sel) == 0 {
			ui.ShowInfo("No translation selected")
			return
		}
		rows := make([][]string, 0, len(sel))
		for _, ch := range sel.Channels() {
			s := sel[ch]
			link, variant := ui.Muted("none"), ""
			if s.HasLink() {
				link, variant = s.LinkValue(), string(s.Variant())
			}
			rows = append(rows, []string{ch, link, variant})
		}
		ui.ShowTable([]string{"Channel", "Link", "Variant"}, rows)
	})
}

// RunSelect sets the translation of one channel. An empty ref clears it.
func RunSelect(channel, ref string, settingsEN bool) {
	var sel config.TranslationSelections
	invoke("load_translations_selected", nil, &sel)
	if sel == nil {
		sel = config.TranslationSelections{}
	}
	if ref == "" {
		sel[channel] = nil
	} else {
		link := resolveLink(ref)
		sel[channel] = &config.TranslationSetting{Link: &link, SettingsEN: settingsEN}
	}
	invoke("save_translations_selected", map[string]any{"data": sel}, nil)
	output.Print(sel, func() {
		if ref == "" {
			ui.ShowSuccess("Translation cleared for %s", channel)
			return
		}
		ui.ShowSuccess("Translation for %s set to %s", channel, sel[channel].LinkValue())
	})
}
