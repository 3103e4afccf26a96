package service

import (
	"context"

	"multitool/internal/buildinfo"
	"multitool/internal/cache"
	"multitool/internal/gateway"
	"multitool/internal/presets"
)

// LatestCommits lists recent commits of owner/repo, the configured
// repository when both are empty.
func (s *Service) LatestCommits(ctx context.Context, owner, repo string) ([]gateway.Commit, error) {
	if owner == "" && repo == "" {
		owner, repo = splitRepo(s.build.GitHubRepo)
	}
	return s.gateway.LatestCommits(ctx, owner, repo)
}

func splitRepo(full string) (string, string) {
	for i := 0; i < len(full); i++ {
		if full[i] == '/' {
			return full[:i], full[i+1:]
		}
	}
	return full, ""
}

// News fetches the RSI news feed.
func (s *Service) News(ctx context.Context) (gateway.NewsFeed, error) {
	return s.gateway.News(ctx)
}

// Characters lists catalog presets.
func (s *Service) Characters(ctx context.Context, page int, orderType, search string) (gateway.CharacterPage, error) {
	return s.gateway.Characters(ctx, page, orderType, search)
}

// CharacterInformations lists the local presets of one installation.
func (s *Service) CharacterInformations(path string) (presets.Characters, error) {
	return presets.List(path)
}

// DeleteCharacter removes one local preset.
func (s *Service) DeleteCharacter(path string) error {
	return presets.Delete(path)
}

// DuplicateCharacter copies a preset to every other installation.
func (s *Service) DuplicateCharacter(path string) ([]string, error) {
	return s.presets.Duplicate(path)
}

// DownloadCharacter imports a catalog preset into every installation.
func (s *Service) DownloadCharacter(ctx context.Context, dnaURL, title string) (string, error) {
	return s.presets.Download(ctx, dnaURL, title)
}

// CacheInformations lists the game cache folders with their sizes.
func (s *Service) CacheInformations() (cache.Info, error) {
	return s.cache.Info()
}

// DeleteFolder removes one entry of the game cache.
func (s *Service) DeleteFolder(path string) error {
	return s.cache.Delete(path)
}

// ClearCache empties the game cache.
func (s *Service) ClearCache() error {
	return s.cache.Clear()
}

// BuildReport is the get_build_info payload.
type BuildReport struct {
	buildinfo.Info
	Security buildinfo.SecurityInfo `json:"security"`
	Warning  string                 `json:"warning,omitempty"`
}

// BuildInfo describes the running build.
func (s *Service) BuildInfo() BuildReport {
	return BuildReport{Info: s.build, Security: s.build.Security(), Warning: s.build.Warning()}
}
