package template

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Template workbooks land in the download directory under the marketplace's
// own (localized) naming, so discovery goes by filename pattern.
var templatePatterns = []string{
	"Шаблон обновления цен и скидок*.xlsx",
	"*обновления цен*.xlsx",
	"*WB*.xlsx",
}

// FindTemplateFiles returns matching workbooks in dir, newest first.
func FindTemplateFiles(dir string) []string {
	seen := make(map[string]struct{})
	var found []string
	for _, pattern := range templatePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			found = append(found, m)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return modTime(found[i]).After(modTime(found[j]))
	})
	return found
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
