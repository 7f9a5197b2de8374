// Command concretestv counts a single Single Transferable Vote election
// under a named rule profile and writes the resulting transcript.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concretestv/internal/appconfig"
	"concretestv/internal/arithmetic"
	"concretestv/internal/ballot"
	"concretestv/internal/decision"
	"concretestv/internal/engine"
	"concretestv/internal/obslog"
	"concretestv/internal/obsmetrics"
	"concretestv/internal/rules"
	"concretestv/internal/transcript"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := appconfig.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "concretestv: loading config: %v\n", err)
		return 1
	}

	parsed, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := obslog.Setup("concretestv", parsed.rulesName)
	if parsed.verbose || strings.EqualFold(cfg.DefaultVerbosity, "debug") {
		logger = logger.With("verbose", true)
	}

	if parsed.metricsAddr != "" {
		startMetricsServer(parsed.metricsAddr, logger)
	}

	profile, err := rules.By(parsed.rulesName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "concretestv:", err)
		return 1
	}

	data, err := ballot.Load(parsed.ballotFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "concretestv:", err)
		return 1
	}

	vacancies := data.Metadata.Vacancies
	if parsed.vacancies > 0 {
		vacancies = parsed.vacancies
	}

	table, err := ballot.BuildTable(data, coreFormalityRule(), ballot.PositionOrder)
	if err != nil {
		fmt.Fprintln(os.Stderr, "concretestv:", err)
		return 1
	}

	oracle := buildOracle(parsed, data)
	positions := buildPositions(data)

	runID := uuid.New().String()
	logger.Info("starting count",
		"rule_profile", profile.Name,
		"arithmetic", arithmeticKindName(profile.TallyKind),
		"ballot_file", parsed.ballotFile,
		"run_id", runID,
	)

	eng := engine.New(table, profile, data.CandidateCount(), vacancies, oracle, positions, runID)
	excluded := append(append([]int{}, data.Metadata.Excluded...), parsed.exclude...)
	eng.PreExclude(excluded)

	start := time.Now()
	tr, err := eng.Run()
	duration := time.Since(start)

	unresolvedTie := err != nil
	obsmetrics.Metrics().ObserveRun(profile.Name, len(tr.Counts), unresolvedTie, duration)

	if err != nil {
		logger.Error("count halted", "error", err.Error())
		fmt.Fprintln(os.Stderr, "concretestv:", err)
		return 1
	}

	outPath, err := outputPath(parsed, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "concretestv:", err)
		return 1
	}
	if err := transcript.Save(outPath, tr, profile.TallyKind); err != nil {
		fmt.Fprintln(os.Stderr, "concretestv:", err)
		return 1
	}

	logger.Info("count complete", "counts", len(tr.Counts), "elected", tr.Elected, "transcript", outPath)
	fmt.Fprintf(os.Stdout, "%s\n", outPath)
	return 0
}

// coreFormalityRule is the formality cut-off used by this CLI's core
// surface: a ballot with at least one usable preference is formal, and
// expansion simply stops at the first gap or duplicate rather than
// rejecting the whole ballot. Rule profiles that require a stricter
// (reject-entirely, minimum-preference) formality test are applied by
// constructing a ballot.Table directly rather than through this CLI.
func coreFormalityRule() ballot.FormalityRule {
	return ballot.FormalityRule{
		MinPreferences:           1,
		OnViolation:              ballot.TruncateBeforeViolation,
		AllowPartialBelowMinimum: true,
	}
}

// buildOracle chains the tie-resolution sources consulted after
// count-back: an explicit ballot-file resolution, then the
// CLI's --tie flag, then either a seeded PRNG (when --seed is given) or an
// interactive prompt (which fails when stdin is not a terminal). The
// returned oracle is never nil, so the engine's reverse-donkey fallback is
// not used by the CLI.
func buildOracle(parsed cliArgs, data *ballot.Data) decision.Oracle {
	var innermost decision.Oracle
	if parsed.seed != nil {
		innermost = decision.SeededOracle{Seed: *parsed.seed}
	} else {
		innermost = newInteractiveOracle()
	}

	chain := innermost
	if len(parsed.tie) > 0 {
		chain = explicitOrderOracle{Order: parsed.tie, Fallback: chain}
	}
	if len(data.Metadata.TieResolutions) > 0 {
		chain = decision.ExplicitOracle{Resolutions: convertTieResolutions(data.Metadata.TieResolutions), Fallback: chain}
	}
	return chain
}

func convertTieResolutions(in []ballot.TieResolution) []decision.TieResolution {
	out := make([]decision.TieResolution, 0, len(in))
	for _, r := range in {
		out = append(out, decision.TieResolution{Favoured: r.Favoured, Disfavoured: r.Disfavoured})
	}
	return out
}

func buildPositions(data *ballot.Data) map[int]int {
	positions := make(map[int]int, len(data.Metadata.Candidates))
	for i, c := range data.Metadata.Candidates {
		positions[i] = c.Position
	}
	return positions
}

func outputPath(parsed cliArgs, cfg *appconfig.Config) (string, error) {
	base := strings.TrimSuffix(filepath.Base(parsed.ballotFile), filepath.Ext(parsed.ballotFile))
	name := base + "." + parsed.rulesName + ".transcript"
	dir := parsed.outputDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	if dir == "" {
		dir = filepath.Dir(parsed.ballotFile)
	}
	return filepath.Join(dir, name), nil
}

// startMetricsServer exposes /metrics on addr in the background; a failure
// to bind is logged, not fatal, since metrics exposition is optional.
func startMetricsServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err.Error())
		}
	}()
	logger.Info("metrics server listening", "addr", addr)
}

// arithmeticKindName is used only for operator-facing log lines.
func arithmeticKindName(k arithmetic.Kind) string {
	switch k {
	case arithmetic.KindFixedSixDP:
		return "fixed-six-dp"
	case arithmetic.KindRational:
		return "rational"
	default:
		return "integer"
	}
}
