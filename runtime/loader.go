package runtime

import (
	"bufio"
	"bytes"
	"cryptochat/errors"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// CensoredData carries the result of the loading process including metadata for logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads moderation dictionaries, one word per line, one file per language.
type CensoredLoader struct {
	fs fs.FS
}

// NewCensoredLoader reads dictionaries from f, typically os.DirFS(CENSORED_DIR).
func NewCensoredLoader(f fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// LoadAll parses every .txt file of dir ("fr.txt" is the "fr" dictionary) and merges extra into the result.
// Duplicates are removed and the words are sorted.
func (l *CensoredLoader) LoadAll(dir string, extra ...string) (*CensoredData, error) {
	uniqueWords := make(map[string]struct{})
	for _, w := range extra {
		if w = strings.TrimSpace(w); w != "" {
			uniqueWords[w] = struct{}{}
		}
	}

	var languages []string
	if l.fs != nil {
		entries, err := fs.ReadDir(l.fs, dir)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
				continue
			}
			languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

			data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}

			// Scanner handles \n and \r\n alike
			scanner := bufio.NewScanner(bytes.NewReader(data))
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line != "" && !strings.HasPrefix(line, "#") {
					uniqueWords[line] = struct{}{}
				}
			}
			if err := scanner.Err(); err != nil {
				return nil, err
			}
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	sort.Strings(words)

	return &CensoredData{
		Words:     words,
		Languages: languages,
	}, nil
}
