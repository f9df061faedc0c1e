package canopy

import "sync"

var (
	importSourceMu      sync.RWMutex
	importSourceBaseURL string
)

// SetDefaultImportSourceBaseURL sets the base URL used by widgets created without
// WithImportSourceBaseURL. Widgets already created keep the value they started with.
func SetDefaultImportSourceBaseURL(url string) {
	importSourceMu.Lock()
	defer importSourceMu.Unlock()
	importSourceBaseURL = url
}

// DefaultImportSourceBaseURL returns the process-wide default base URL.
func DefaultImportSourceBaseURL() string {
	importSourceMu.RLock()
	defer importSourceMu.RUnlock()
	return importSourceBaseURL
}
