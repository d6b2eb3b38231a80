// Package version reports the build version recorded in version.json at
// the repository root.
package version

import (
	"encoding/json"
	"log"
	"os"
)

const fallback = "0.0.0"

type Info struct {
	Version string `json:"version"`
}

// Load reads version.json from the working directory.
func Load() Info {
	return LoadFrom("version.json")
}

// LoadFrom reads the version manifest at path. A missing or malformed
// manifest yields the fallback version; nothing in the pipeline should fail
// over version metadata.
func LoadFrom(path string) Info {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("version: using fallback %s: %v", fallback, err)
		return Info{Version: fallback}
	}
	info := Info{Version: fallback}
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("version: malformed %s: %v", path, err)
		return Info{Version: fallback}
	}
	if info.Version == "" {
		info.Version = fallback
	}
	return info
}
