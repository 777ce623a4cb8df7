// Package scriptmeta reads module-level string assignments such as
// __doc__ = "..." and __author__ = "..." from the leading lines of a script.
package scriptmeta

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

// Extractor looks up a named string parameter in a script file.
type Extractor interface {
	Lookup(path, param string) (string, bool)
}

var continuation = regexp.MustCompile(`^\s*['"](.*)['"]`)

var unescaper = strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\n`, "\n", `\t`, "\t")

// Extract scans r for `param = "value"`, case-insensitively, and appends any
// directly following quoted-string lines. Escaped quotes, newlines and tabs
// are unescaped. An empty value reports false.
func Extract(r io.Reader, param string) (string, bool) {
	finder, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(param) + `\s*=\s*['"](.*)['"]`)
	if err != nil {
		return "", false
	}

	var (
		value string
		found bool
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !found {
			if m := finder.FindStringSubmatch(line); m != nil {
				value = m[1]
				found = true
			}
			continue
		}
		m := continuation.FindStringSubmatch(line)
		if m == nil {
			break
		}
		value += m[1]
	}

	value = unescaper.Replace(value)
	return value, value != ""
}

// FileExtractor reads scripts from disk and memoizes parameters per file.
// It is safe for concurrent use.
type FileExtractor struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewFileExtractor creates an empty FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{cache: make(map[string]string)}
}

// Lookup implements Extractor. Unreadable files report false.
func (e *FileExtractor) Lookup(path, param string) (string, bool) {
	key := path + "\x00" + param

	e.mu.Lock()
	if v, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return v, v != ""
	}
	e.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	v, _ := Extract(f, param)

	e.mu.Lock()
	e.cache[key] = v
	e.mu.Unlock()
	return v, v != ""
}

// Tooltip composes the tooltip of a command: its description, the script
// file it runs and, when known, its author.
func Tooltip(doc, scriptName, scriptExt, author string) string {
	var b strings.Builder
	b.WriteString(doc)
	b.WriteString("\n\nScript Name:\n")
	b.WriteString(scriptName)
	b.WriteString(" ")
	b.WriteString(strings.ToLower(scriptExt))
	if author != "" {
		b.WriteString("\n\nAuthor:\n")
		b.WriteString(author)
	}
	return b.String()
}
