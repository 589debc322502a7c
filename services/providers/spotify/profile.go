package spotify

import (
	"fmt"
	"os"
	"path/filepath"

	"synced-lyrics-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// profileCacheDirs are the Chrome profile directories that only hold caches.
// Cookies and local storage live elsewhere and are kept.
var profileCacheDirs = []string{
	"component_crx_cache",
	"Crashpad",
	"Default/Cache",
	"Default/Code Cache",
	"Default/DawnGraphiteCache",
	"Default/DawnWebGPUCache",
	"Default/GPUCache",
	"extensions_crx_cache",
	"GraphiteDawnCache",
	"GrShaderCache",
	"ShaderCache",
}

// ClearProfileCache removes the cache directories of a browser profile.
// The browser using the profile must already be closed.
func ClearProfileCache(profileDir string) error {
	if profileDir == "" {
		return nil
	}

	removed := 0
	for _, name := range profileCacheDirs {
		path := filepath.Join(profileDir, filepath.FromSlash(name))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("clear %s: %w", path, err)
		}
		removed++
	}

	log.Infof("%s Profile cache cleared (%d directories)", logcolors.LogBrowser, removed)
	return nil
}
