package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/restclient/internal/app"
	"github.com/samvad-hq/restclient/internal/domain"
)

func newRunCommand(env *environment) *cobra.Command {
	var (
		requestsFile string
		watch        bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every request in the requests file",
		Long: `Execute the requests file once and print a summary. With --watch, or when
RUN_INTERVAL_SECONDS is set, repeat on that interval until interrupted.

Examples:
  restclient run
  restclient run -f ./configs/smoke.yaml
  RUN_INTERVAL_SECONDS=30 restclient run --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *env.cfg
			if requestsFile != "" {
				cfg.RequestsFile = requestsFile
			}

			runner, err := app.NewRunner(cmd.Context(), &cfg, env.log)
			if err != nil {
				return exitWith(ExitConfig, err)
			}
			defer runner.Close()

			if watch && cfg.RunInterval > 0 {
				if err := runner.Run(cmd.Context()); err != nil {
					return exitWith(ExitTransport, err)
				}
				return nil
			}

			report, runErr := runner.RunOnce(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			if runErr != nil {
				return exitWith(ExitTransport, runErr)
			}
			if report.Failed() > 0 {
				return exitWith(worstExit(report), nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&requestsFile, "file", "f", "", "Requests file (default from REQUESTS_FILE)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Repeat on RUN_INTERVAL_SECONDS until interrupted")
	return cmd
}

func printReport(w io.Writer, report app.Report) {
	fmt.Fprintf(w, "\n%s %s\n\n", boldStyle("Run"), dimStyle(report.RunID))
	for _, ex := range report.Exchanges {
		mark := okStyle("✓")
		if !ex.OK() {
			mark = failStyle("✗")
		}
		code := dimStyle("---")
		if ex.StatusCode != 0 {
			code = styleForCode(ex.StatusCode)(fmt.Sprintf("%d", ex.StatusCode))
		}
		fmt.Fprintf(w, "  %s %-20s %-6s %s %s %s\n",
			mark, ex.RequestID, ex.Method, code, dimStyle(ex.Duration.Round(time.Millisecond).String()), ex.URL)
		if ex.Error != "" && ex.Outcome != domain.OutcomeResponseError {
			fmt.Fprintf(w, "      %s\n", styleForOutcome(ex.Outcome)(ex.Error))
		}
	}

	fmt.Fprintln(w)
	for _, o := range domain.Outcomes {
		if n := report.Counts[o]; n > 0 {
			fmt.Fprintf(w, "  %s %d\n", styleForOutcome(o)(fmt.Sprintf("%-16s", o)), n)
		}
	}
	fmt.Fprintf(w, "\n  latency p50=%s p95=%s p99=%s max=%s\n\n",
		report.Latency.P50, report.Latency.P95, report.Latency.P99, report.Latency.Max)
}

// worstExit picks the exit code of the most severe failed outcome.
func worstExit(report app.Report) int {
	code := ExitOK
	rank := map[int]int{ExitOK: 0, ExitResponse: 1, ExitTimeout: 2, ExitTransport: 3, ExitUsage: 4}
	for _, ex := range report.Exchanges {
		if c := exitCodeFor(ex.Outcome); rank[c] > rank[code] {
			code = c
		}
	}
	return code
}
