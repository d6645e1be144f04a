package version

import (
	"encoding/json"
	"log"

	"github.com/spf13/afero"
)

const fallback = "0.0.0"

type Info struct {
	Version string `json:"version"`
}

// Load reads the build version from a JSON file on fs. A missing or
// malformed file yields version 0.0.0.
func Load(fs afero.Fs, path string) Info {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		log.Printf("warning: could not read %s: %v", path, err)
		return Info{Version: fallback}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil || info.Version == "" {
		log.Printf("warning: could not parse %s: %v", path, err)
		return Info{Version: fallback}
	}
	return info
}
