package meshup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Save writes data to path, creating parent directories.
func Save(path string, data []byte) error {
	if path == "" {
		return argErr("Save", "path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return opErr("Save", fmt.Errorf("create directory: %w", err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return opErr("Save", err)
	}
	return nil
}

// SetLogger routes the session's diagnostics to logger. A nil logger
// restores the default.
func (s *Session) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = NewLogger()
	}
	s.log = logger
	s.opts.Logger = logger
}
