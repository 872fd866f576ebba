package voices

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voiced/internal/common/fsutil"
	"voiced/pkg/types"
)

// audioExts lists reference recording extensions picked up by LoadDir.
var audioExts = map[string]bool{
	".wav":  true,
	".m4a":  true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
}

// LoadDir scans dir for reference recordings with a sibling transcript.
// A file "claire.wav" next to "claire.txt" becomes voice "claire". Recordings
// without a transcript are skipped. Results are sorted by name.
func LoadDir(dir string) ([]types.Voice, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.Voice
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !audioExts[ext] {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		txt, err := os.ReadFile(filepath.Join(abs, stem+".txt"))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(txt))
		if text == "" {
			continue
		}
		out = append(out, types.Voice{
			Name:     stem,
			RefAudio: filepath.Join(abs, name),
			RefText:  text,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
