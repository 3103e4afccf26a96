package commands

import (
	"fmt"
	"strconv"
	"strings"

	"multitool/internal/cache"
	"multitool/internal/gateway"
	"multitool/internal/output"
	"multitool/internal/presets"
	"multitool/internal/service"
	"multitool/internal/ui"
)

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

// RunNews prints the latest RSI articles.
func RunNews(limit int) {
	var feed gateway.NewsFeed
	invoke("fetch_rsi_news", nil, &feed)
	if limit > 0 && len(feed.Items) > limit {
		feed.Items = feed.Items[:limit]
	}
	output.Print(feed, func() {
		ui.ShowHeader(feed.Title)
		for _, item := range feed.Items {
			date, _, _ := strings.Cut(item.DatePublished, "T")
			fmt.Printf("  %s  %s\n", ui.Muted(date), item.Title)
			fmt.Printf("  %s\n", ui.Muted(item.URL))
		}
	})
}

// RunCommits prints recent commits; repo is "owner/name" or empty for the
// application repository.
func RunCommits(repo string, limit int) {
	owner, name, _ := strings.Cut(repo, "/")
	var commits []gateway.Commit
	invoke("get_latest_commits", map[string]string{"owner": owner, "repo": name}, &commits)
	if limit > 0 && len(commits) > limit {
		commits = commits[:limit]
	}
	output.Print(commits, func() {
		rows := make([][]string, 0, len(commits))
		for _, c := range commits {
			date, _, _ := strings.Cut(c.Date, "T")
			sha := c.SHA
			if len(sha) > 7 {
				sha = sha[:7]
			}
			rows = append(rows, []string{sha, date, c.Author, shorten(c.Message, 60)})
		}
		ui.ShowTable([]string{"Commit", "Date", "Author", "Message"}, rows)
	})
}

// RunCharacters browses the preset catalog.
func RunCharacters(page int, order, search string) {
	var res gateway.CharacterPage
	invoke("get_characters", map[string]any{"page": page, "orderType": order, "search": search}, &res)
	output.Print(res, func() {
		if len(res.Rows) == 0 {
			ui.ShowInfo("No preset found")
			return
		}
		rows := make([][]string, 0, len(res.Rows))
		for _, c := range res.Rows {
			rows = append(rows, []string{shorten(c.Title, 40), c.Owner, strconv.FormatInt(c.Downloads, 10), strconv.FormatInt(c.Likes, 10)})
		}
		ui.ShowTable([]string{"Title", "Author", "Downloads", "Likes"}, rows)
		if res.HasNextPage {
			ui.ShowInfo("More results: --page %d", res.Page+1)
		}
	})
}

// RunPresetsList lists local presets of one installation.
func RunPresetsList(path string) {
	var res presets.Characters
	invoke("get_character_informations", map[string]string{"path": path}, &res)
	output.Print(res, func() {
		if len(res.Characters) == 0 {
			ui.ShowInfo("No local preset in %s", path)
			return
		}
		rows := make([][]string, 0, len(res.Characters))
		for _, p := range res.Characters {
			rows = append(rows, []string{p.Name, p.Version, p.Path})
		}
		ui.ShowTable([]string{"Name", "Channel", "Path"}, rows)
	})
}

// RunPresetDelete deletes one local preset.
func RunPresetDelete(path string) {
	invoke("delete_character", map[string]string{"characterPath": path}, nil)
	output.Print(map[string]any{"deleted": path}, func() {
		ui.ShowSuccess("Deleted %s", path)
	})
}

// RunPresetDuplicate copies a preset to every other installation.
func RunPresetDuplicate(path string) {
	var copies []string
	invoke("duplicate_character", map[string]string{"characterPath": path}, &copies)
	output.Print(copies, func() {
		if len(copies) == 0 {
			ui.ShowInfo("No other installation to copy to")
			return
		}
		for _, p := range copies {
			ui.ShowSuccess("Copied to %s", p)
		}
	})
}

// RunPresetDownload imports a catalog preset.
func RunPresetDownload(dnaURL, title string) {
	var path string
	invoke("download_character", map[string]string{"dnaUrl": dnaURL, "title": title}, &path)
	output.Print(map[string]string{"path": path}, func() {
		ui.ShowSuccess("Downloaded %s to %s", title, path)
	})
}

// RunCacheList lists the game cache folders.
func RunCacheList() {
	var info cache.Info
	invoke("get_cache_informations", nil, &info)
	output.Print(info, func() {
		if len(info.Folders) == 0 {
			ui.ShowInfo("Cache is empty")
			return
		}
		var total int64
		rows := make([][]string, 0, len(info.Folders))
		for _, f := range info.Folders {
			total += f.SizeBytes
			rows = append(rows, []string{f.Name, f.Weight, f.Path})
		}
		ui.ShowTable([]string{"Folder", "Size", "Path"}, rows)
		ui.ShowField("Total", cache.FormatWeight(total))
	})
}

// RunCacheDelete removes one cache folder.
func RunCacheDelete(path string) {
	invoke("delete_folder", map[string]string{"path": path}, nil)
	output.Print(map[string]any{"deleted": path}, func() {
		ui.ShowSuccess("Deleted %s", path)
	})
}

// RunCacheClear empties the cache.
func RunCacheClear() {
	invoke("clear_cache", nil, nil)
	output.Print(map[string]bool{"cleared": true}, func() {
		ui.ShowSuccess("Cache cleared")
	})
}

// RunBuildInfo describes the build and its update policy.
func RunBuildInfo() {
	var info service.BuildReport
	invoke("get_build_info", nil, &info)
	output.Print(info, func() {
		ui.ShowHeader("Multitool " + info.Version)
		ui.ShowField("Distribution", info.Distribution)
		ui.ShowField("Signed", ui.YesNo(info.IsSigned))
		ui.ShowField("Portable", ui.YesNo(info.IsPortable))
		ui.ShowField("Auto update", ui.YesNo(info.CanAutoUpdate))
		ui.ShowField("Download from", info.Security.DownloadSourceURL)
		if info.BuildDate != "" {
			ui.ShowField("Built", info.BuildDate)
		}
		if info.Warning != "" {
			ui.ShowWarning("%s", info.Warning)
		}
	})
}
