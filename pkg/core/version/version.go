// ============================================================================
// dglrechner - ODE-Eingabe, Vorschau und Lösung
// ============================================================================
//
// Package:     version
// Description: Central version information for the dgl binary and its parts
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Release versions of the individual parts
const (
	// App is the release version of the dgl binary
	App = "1.0.0"

	// Normalizer changes whenever the rewrite rules change output
	Normalizer = "1.0.0"

	// Bridge is the version of the JSON protocol spoken with the solver script
	Bridge = "1.0.0"

	// API is the version of the HTTP API
	API = "1.0.0"
)

// Set at build time via -ldflags "-X .../version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the version report printed by `dgl version` and served by the API
type Info struct {
	App        string `json:"app" yaml:"app"`
	Normalizer string `json:"normalizer" yaml:"normalizer"`
	Bridge     string `json:"bridge" yaml:"bridge"`
	API        string `json:"api" yaml:"api"`
	Commit     string `json:"commit" yaml:"commit"`
	BuildDate  string `json:"build_date" yaml:"build_date"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
}

// Get returns the version report
func Get() Info {
	return Info{
		App:        App,
		Normalizer: Normalizer,
		Bridge:     Bridge,
		API:        API,
		Commit:     Commit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
	}
}

// String returns a one-line summary
func (i Info) String() string {
	return fmt.Sprintf("dgl %s (commit %s, built %s, %s)", i.App, i.Commit, i.BuildDate, i.GoVersion)
}

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "normalizer":
		return Normalizer
	case "bridge":
		return Bridge
	case "api":
		return API
	default:
		return App
	}
}
