package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt
var defaultFS embed.FS

// template describes one prompt file the synthesizer reads.
type template struct {
	name  string
	verbs int // number of %s verbs the file must contain
	about string
}

var templates = []template{
	{driven.PromptAnswer, 2, "the answer prompt; the passages fill the first %s and the question the second"},
	{driven.PromptNoContext, 0, "stands in for the passages when retrieval finds nothing"},
}

func lookupTemplate(name string) (template, bool) {
	for _, t := range templates {
		if t.name == name {
			return t, true
		}
	}
	return template{}, false
}

// DefaultPrompt returns the built-in text for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultFS.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves prompt templates from a directory the user may edit.
// The directory is seeded with the built-in prompts on first use and an
// edited file only takes effect after Reload. A file that is missing or has
// the wrong number of %s verbs falls back to the built-in text.
type PromptStore struct {
	dir  string
	seed sync.Once

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore returns a store over dir, ~/.askdocs/prompts when empty.
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".askdocs", "prompts")
	}
	return &PromptStore{dir: dir, cache: map[string]string{}}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string { return s.dir }

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	t, ok := lookupTemplate(name)
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.mu.RLock()
	text, hit := s.cache[name]
	s.mu.RUnlock()
	if hit {
		return text, nil
	}

	s.seed.Do(s.seedDir)
	text = s.read(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = text
	return text, nil
}

// Reload forgets cached templates so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = map[string]string{}
	s.mu.Unlock()
}

func (s *PromptStore) read(t template) string {
	builtin, _ := DefaultPrompt(t.name)
	path := filepath.Join(s.dir, t.name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("reading %s: %v; using the built-in prompt", path, err)
		}
		return builtin
	}
	text := strings.TrimSpace(string(data))
	if n := strings.Count(text, "%s"); n != t.verbs {
		logger.Warn("%s has %d %%s verbs, want %d; using the built-in prompt", path, n, t.verbs)
		return builtin
	}
	return text
}

// seedDir writes the built-in prompts and a README into the directory,
// leaving files that already exist alone. Failures only mean the
// built-in prompts are served.
func (s *PromptStore) seedDir() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		logger.Warn("creating prompt directory: %v", err)
		return
	}
	files := map[string]string{"README.md": readme()}
	for _, t := range templates {
		text, _ := DefaultPrompt(t.name)
		files[t.name+".txt"] = text + "\n"
	}
	for name, content := range files {
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			logger.Warn("creating %s: %v", path, err)
			continue
		}
		_, err = f.WriteString(content)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			logger.Warn("writing %s: %v", path, err)
		}
	}
}

func readme() string {
	var b strings.Builder
	b.WriteString("# askdocs prompts\n\n")
	b.WriteString("Edit these files to change what the answer model is told.\n\n")
	for _, t := range templates {
		fmt.Fprintf(&b, "- `%s.txt`: %s.\n", t.name, t.about)
	}
	b.WriteString("\nA file with the wrong number of `%s` verbs is ignored and the\n")
	b.WriteString("built-in prompt is used instead. Delete a file to restore it.\n")
	b.WriteString("Changes take effect the next time askdocs starts.\n")
	return b.String()
}
