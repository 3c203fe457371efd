package plugin_loader

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/martpipe/martpipe/constants"
)

type Loc []string

// Locations lists the directories searched for plugins, in order. The
// directory holding the mp executable is prepended by init().
var Locations = Loc{
	"/usr/local/lib",
}

func init() {
	ex, err := os.Executable()
	if err != nil {
		panic("error resolving path to executable")
	}
	exReal, err := filepath.EvalSymlinks(ex)
	if err != nil {
		panic("error resolving symlinks in path to executable")
	}
	Locations = append(Loc{filepath.Dir(exReal)}, Locations...)
}

func (l Loc) String() string {
	tmp := make([]string, 0, len(l))
	for _, v := range l {
		tmp = append(tmp, fmt.Sprintf("'%v'", v))
	}
	return strings.Join(tmp, ", ")
}

// LoadPluginExports opens the named shared library, searching the Locations
// list then the directory named by the plugin dir environment variable, and
// returns its Exports symbol.
func LoadPluginExports(pluginName string) (interface{}, error) {
	const symbolName = "Exports"
	var errs []string
	var plug *plugin.Plugin
	var fullPath string

	loaded := false
	for _, l := range Locations {
		fullPath = path.Join(l, pluginName)
		p, err := plugin.Open(fullPath)
		if err == nil {
			plug = p
			loaded = true
			break
		}
		errs = append(errs, fmt.Sprintf("%v: %v", fullPath, err))
	}

	if !loaded { // fall back to the environment variable location.
		l := os.Getenv(constants.EnvVarPluginDir)
		fullPath = path.Join(l, pluginName)
		if l == "" {
			errs = append(errs, fmt.Sprintf("error loading plugin %v via environment variable %v: variable not set", fullPath, constants.EnvVarPluginDir))
		} else {
			p, err := plugin.Open(path.Join(l, fullPath))
			if err == nil {
				plug = p
				loaded = true
			} else {
				errs = append(errs, fmt.Sprintf("error loading plugin %v via environment variable %v: %v", fullPath, constants.EnvVarPluginDir, err))
			}
		}
	}

	if loaded {
		t, err := plug.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("symbol %v not found in plugin %v: %v", symbolName, fullPath, err)
		}
		return t, nil
	}

	// Combine all errors into one string of format: (<n>) <error>
	var errTxt string
	for i, e := range errs {
		errTxt = fmt.Sprintf("%v (%v) %v", errTxt, i+1, e)
	}
	return nil, fmt.Errorf("unable to load plugin due to the following error(s): %v", strings.TrimSpace(errTxt))
}
