package analyzer

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filelens/internal/metaerr"
	"filelens/internal/report"
	"filelens/pkg/format"
)

// AnalyzeDirectory summarizes the regular files under root. Without
// recursive only the top level is visited.
func (a *Analyzer) AnalyzeDirectory(root string, recursive bool) (*report.DirectorySummary, error) {
	names, err := a.Walk(root, recursive)
	if err != nil {
		return nil, err
	}
	return summarize(names), nil
}

// AnalyzeFiles summarizes an explicit path list by name only.
func (a *Analyzer) AnalyzeFiles(paths []string) *report.DirectorySummary {
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.TrimSpace(path) != "" {
			names = append(names, path)
		}
	}
	return summarize(names)
}

// Walk lists the regular files under root in lexical order. Unreadable
// sub-directories are logged and skipped.
func (a *Analyzer) Walk(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, metaerr.FromOS("walk", root, err)
	}
	if !info.IsDir() {
		return nil, metaerr.Newf(metaerr.ErrInvalidValue, "walk", root, "%s is not a directory", root)
	}

	var files []string
	fsys := os.DirFS(root)
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == "." {
				return walkErr
			}
			a.log.Warn("skipping unreadable entry", "root", root, "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != "." && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(path)))
		return nil
	})
	if err != nil {
		return nil, metaerr.FromOS("walk", root, err)
	}
	return files, nil
}

func summarize(paths []string) *report.DirectorySummary {
	counts := map[string]int{}
	images := map[string]bool{}
	office := map[string]bool{}
	summary := &report.DirectorySummary{
		ExtensionCounts:  []report.ExtensionCount{},
		ImageExtensions:  []string{},
		OfficeExtensions: []string{},
	}

	for _, path := range paths {
		summary.TotalFiles++
		ext := format.Ext(path)
		switch format.FromExtension(path).Family() {
		case format.FamilyImage:
			summary.ImagesCount++
			images[ext] = true
		case format.FamilyOffice:
			summary.OfficeCount++
			office[ext] = true
		}
		if ext == "" {
			ext = report.NoExtension
		}
		counts[ext]++
	}

	for ext, n := range counts {
		summary.ExtensionCounts = append(summary.ExtensionCounts, report.ExtensionCount{Extension: ext, Count: n})
	}
	sort.Slice(summary.ExtensionCounts, func(i, j int) bool {
		ci, cj := summary.ExtensionCounts[i], summary.ExtensionCounts[j]
		if ci.Count != cj.Count {
			return ci.Count > cj.Count
		}
		return ci.Extension < cj.Extension
	})
	summary.ImageExtensions = sortedKeys(images)
	summary.OfficeExtensions = sortedKeys(office)
	return summary
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
