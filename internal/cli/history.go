package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/restclient/internal/app"
)

func newHistoryCommand(env *environment) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the latest journaled exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.OpenJournal(env.cfg)
			if err != nil {
				return exitWith(ExitConfig, err)
			}
			defer store.Close()

			exchanges, err := store.Recent(limit)
			if err != nil {
				return exitWith(ExitConfig, fmt.Errorf("read journal: %w", err))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(exchanges)
			}
			if len(exchanges) == 0 {
				fmt.Fprintln(out, dimStyle("no exchanges recorded"))
				return nil
			}
			for _, ex := range exchanges {
				code := dimStyle("---")
				if ex.StatusCode != 0 {
					code = styleForCode(ex.StatusCode)(fmt.Sprintf("%d", ex.StatusCode))
				}
				fmt.Fprintf(out, "%s  %-6s %s %-16s %8s  %s\n",
					dimStyle(ex.StartedAt.Local().Format(time.DateTime)),
					ex.Method,
					code,
					styleForOutcome(ex.Outcome)(string(ex.Outcome)),
					ex.Duration.Round(time.Millisecond),
					ex.URL,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of exchanges to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
