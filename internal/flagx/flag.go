// Package flagx lets several configuration loaders share os.Args: each one
// picks out only the flags it owns before handing them to a flag.FlagSet, so
// the server, the client and the JSON loader never trip over each other's
// flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of args that belongs to allowedFlags,
// together with their values.
//
// Accepted forms, for an allowed flag "-c":
//
//	-c conf.json     --c conf.json
//	-c=conf.json     --c=conf.json
//
// A token following an allowed flag is taken as its value unless it starts
// with "-". The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[canonical(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, ok := allowed[canonical(name)]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[canonical(arg)]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// canonical folds "--name" into "-name"; package flag treats them the same.
func canonical(name string) string {
	if strings.HasPrefix(name, "--") {
		return name[1:]
	}
	return name
}

// ConfigPath extracts the JSON config file path given via -c or -config.
// It returns "" when neither is present.
func ConfigPath(args []string) string {
	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))
	return path
}
