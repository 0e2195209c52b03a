package persist

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/onceinteractive/cascade/pkg/types"
)

// FileAdapter keeps one JSON snapshot per form instance under a directory.
// I/O failures are logged at debug level and otherwise swallowed: the cascade
// keeps working, it just loses cross-reload memory.
type FileAdapter struct {
	dir    string
	logger *log.Logger
}

// FileOption configures a FileAdapter.
type FileOption func(*FileAdapter)

// WithFileLogger sets the logger used for degraded operations.
func WithFileLogger(logger *log.Logger) FileOption {
	return func(f *FileAdapter) {
		f.logger = logger
	}
}

// NewFile creates a file adapter rooted at dir. The directory is created
// lazily on the first save.
func NewFile(dir string, opts ...FileOption) *FileAdapter {
	f := &FileAdapter{dir: dir, logger: log.Default()}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *FileAdapter) path(formID string) string {
	// Form ids come from configuration; strip separators rather than trust them.
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '_'
		}
		return r
	}, formID)
	return filepath.Join(f.dir, name+".json")
}

// Save writes the selections snapshot, replacing any previous one.
func (f *FileAdapter) Save(formID string, selections types.Selections) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		f.logger.Debug("persist save degraded", "form", formID, "err", err)
		return
	}
	data, err := json.Marshal(selections)
	if err != nil {
		f.logger.Debug("persist save degraded", "form", formID, "err", err)
		return
	}
	tmp := f.path(formID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		f.logger.Debug("persist save degraded", "form", formID, "err", err)
		return
	}
	if err := os.Rename(tmp, f.path(formID)); err != nil {
		f.logger.Debug("persist save degraded", "form", formID, "err", err)
	}
}

// Load reads the stored snapshot, returning an empty map when absent or
// unreadable.
func (f *FileAdapter) Load(formID string) types.Selections {
	data, err := os.ReadFile(f.path(formID))
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Debug("persist load degraded", "form", formID, "err", err)
		}
		return types.Selections{}
	}
	var out types.Selections
	if err := json.Unmarshal(data, &out); err != nil {
		f.logger.Debug("persist load degraded", "form", formID, "err", err)
		return types.Selections{}
	}
	if out == nil {
		out = types.Selections{}
	}
	return out
}

// Clear removes the stored snapshot.
func (f *FileAdapter) Clear(formID string) {
	if err := os.Remove(f.path(formID)); err != nil && !os.IsNotExist(err) {
		f.logger.Debug("persist clear degraded", "form", formID, "err", err)
	}
}
