// Package flagx lets several config layers share one command line: each
// layer picks out only the flags it owns before calling flag.Parse.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args that belong to the allowed flags,
// keeping their values. Both "-f value" and "-f=value" forms are accepted.
// Flags listed in boolFlags never consume the following token.
//
// A token starting with '-' is never taken as a value, so "-c -x" keeps only
// "-c".
func FilterArgs(args []string, allowed []string, boolFlags ...string) []string {
	allowedSet := toSet(allowed)
	boolSet := toSet(boolFlags)

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowedSet[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowedSet[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)

		if _, isBool := boolSet[arg]; isBool {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFile extracts the JSON config path given with -c or -config.
// Other flags are ignored; the last occurrence wins. Empty means "none".
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
