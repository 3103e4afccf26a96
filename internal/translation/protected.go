package translation

import (
	"regexp"
	"strings"
)

var programFilesRe = regexp.MustCompile(`(?i)^[a-z]:[\\/]+Program Files( \(x86\))?([\\/]|$)`)

// IsProtectedPath reports whether path lies under Program Files or one of the
// extra prefixes. The check is lexical and touches nothing on disk.
func IsProtectedPath(path string, extra []string) bool {
	if programFilesRe.MatchString(path) {
		return true
	}
	p := cmpPath(path)
	for _, prefix := range extra {
		pre := cmpPath(prefix)
		if pre == "" {
			continue
		}
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}

func cmpPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	return strings.ToLower(strings.TrimRight(p, "/"))
}
