package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// cliArgs is the parsed form of the core-relevant CLI surface:
// <rules-name> <ballot-file> [--exclude c1,c2,…] [--vacancies N]
// [--tie a,b,…] [--seed N] [--verbose].
type cliArgs struct {
	rulesName   string
	ballotFile  string
	exclude     []int
	vacancies   int // 0 means "use the ballot file's declared vacancies"
	tie         []int
	seed        *int64
	verbose     bool
	metricsAddr string
	outputDir   string
}

func parseArgs(args []string) (cliArgs, error) {
	fs := flag.NewFlagSet("concretestv", flag.ContinueOnError)
	var excludeStr, tieStr string
	var seedStr string
	out := cliArgs{}
	fs.StringVar(&excludeStr, "exclude", "", "comma-separated candidate ids to exclude before counting begins")
	fs.IntVar(&out.vacancies, "vacancies", 0, "override the ballot file's declared vacancy count")
	fs.StringVar(&tieStr, "tie", "", "comma-separated increasing-favour candidate ordering, consulted when no ballot-file resolution applies")
	fs.StringVar(&seedStr, "seed", "", "deterministic PRNG seed consulted for any tie left unresolved by count-back and --tie")
	fs.BoolVar(&out.verbose, "verbose", false, "emit debug-level structured logs")
	fs.StringVar(&out.metricsAddr, "metrics-addr", "", "address to expose Prometheus metrics on, e.g. :9090 (disabled if empty)")
	fs.StringVar(&out.outputDir, "output-dir", "", "directory to write the .transcript file to (default: alongside the ballot file)")

	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return cliArgs{}, fmt.Errorf("concretestv: expected <rules-name> <ballot-file>, got %d positional argument(s)", len(rest))
	}
	out.rulesName, out.ballotFile = rest[0], rest[1]

	var err error
	if out.exclude, err = parseIntList(excludeStr); err != nil {
		return cliArgs{}, fmt.Errorf("concretestv: --exclude: %w", err)
	}
	if out.tie, err = parseIntList(tieStr); err != nil {
		return cliArgs{}, fmt.Errorf("concretestv: --tie: %w", err)
	}
	if strings.TrimSpace(seedStr) != "" {
		s, err := strconv.ParseInt(strings.TrimSpace(seedStr), 10, 64)
		if err != nil {
			return cliArgs{}, fmt.Errorf("concretestv: --seed: %w", err)
		}
		out.seed = &s
	}
	return out, nil
}

func parseIntList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", f)
		}
		out = append(out, n)
	}
	return out, nil
}
