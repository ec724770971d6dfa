// Package flagx lets several flag sets share one command line. The server
// configuration and the admin CLI each take only the flags they own.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// ConfigFlags name the JSON configuration file.
var ConfigFlags = []string{"-c", "-config"}

// Split partitions args into the arguments that belong to one of the owned
// flags (with their values) and everything else, keeping the original order
// in both.
//
// Both "-f value" and "-f=value" are recognised. A token that follows an
// owned flag is taken as its value unless it starts with "-".
func Split(args []string, owned []string) (matched, rest []string) {
	set := make(map[string]struct{}, len(owned))
	for _, f := range owned {
		set[f] = struct{}{}
	}

	matched = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := set[name]; ok {
				matched = append(matched, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := set[arg]; !ok {
			rest = append(rest, arg)
			continue
		}
		matched = append(matched, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			matched = append(matched, args[i+1])
			i++
		}
	}
	return matched, rest
}

// FilterArgs returns only the owned flags and their values.
func FilterArgs(args []string, owned []string) []string {
	matched, _ := Split(args, owned)
	return matched
}

// StripArgs returns args without the owned flags and their values.
func StripArgs(args []string, owned []string) []string {
	_, rest := Split(args, owned)
	return rest
}

// ConfigFile returns the path given with -c or -config, or "" when neither
// is present. When both appear the last one wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFlags))

	return path
}
