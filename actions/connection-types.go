package actions

import (
	"sort"
	"strings"

	"github.com/martpipe/martpipe/constants"
)

// IsSupportedConnectionType returns true when the connection type appears in
// the ActionFuncs register.
func IsSupportedConnectionType(schema string) bool {
	_, ok := getSupportedConnectionTypesMap("", "")[schema]
	return ok
}

func GetSupportedOdbcConnectionTypes() string {
	return getSupportedConnectionTypes("", constants.ConnectionTypeOdbc)
}

func GetSupportedLoadMetaConnectionTypes() string {
	return getSupportedConnectionTypes(constants.ActionFuncsSubCommandMeta, "")
}

func GetSupportedLoadSnapConnectionTypes() string {
	return getSupportedSourcesTargetsMap(constants.ActionFuncsSubCommandSnapshot)
}

func GetSupportedLoadAppendConnectionTypes() string {
	return getSupportedSourcesTargetsMap(constants.ActionFuncsSubCommandAppend)
}

type ConnectionTypesFilter func(subcommand, subCommandFilter, srcType, srcTypePrefix string) (retval bool)

// getSupportedConnectionTypes returns a comma separated string of the
// supported connection types registered in ActionFuncs, taking the <src type>
// from keys of the form <src type>-<tgt type>.
// Optionally supply subCommandFilter to limit checking to one sub command.
func getSupportedConnectionTypes(subCommandFilter, srcTypePrefix string) string {
	var s []string
	for k := range getSupportedConnectionTypesMap(subCommandFilter, srcTypePrefix) {
		s = append(s, k)
	}
	return strings.Join(s, ", ")
}

func getSupportedConnectionTypesMap(subCommandFilter, srcTypePrefix string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, command := range ActionFuncs {
		for sk, subcommand := range command {
			for k := range subcommand {
				t := strings.Split(k, "-")[0] // <src type> from keys of the form <src type>-<tgt type>.
				if filterConnectionType(sk, subCommandFilter, t, srcTypePrefix) {
					m[t] = struct{}{}
				}
			}
		}
	}
	return m
}

// filterConnectionType returns true when the connection type passes the
// supplied filters against the ActionFuncs register of commands and
// subcommands. See type ConnectionTypesFilter for users of this.
func filterConnectionType(subcommand, subCommandFilter, srcType, srcTypePrefix string) bool {
	if subCommandFilter != "" && subcommand != subCommandFilter {
		return false
	}
	return strings.HasPrefix(srcType, srcTypePrefix)
}

func getSupportedSourcesTargetsMap(subCommandFilter string) string {
	m := make(map[string]struct{})
	for _, command := range ActionFuncs {
		for sk, subcommand := range command {
			for keySrcTgt := range subcommand {
				if filterConnectionType(sk, subCommandFilter, keySrcTgt, "") {
					m[keySrcTgt] = struct{}{}
				}
			}
		}
	}
	// Render the src-tgt keys as a sorted list, one per line.
	var s []string
	for k := range m {
		s = append(s, "  "+k)
	}
	sort.Strings(s)
	return strings.Join(s, "\n")
}
