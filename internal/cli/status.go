package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/restclient/pkg/status"
)

func newStatusCommand(_ *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status [code]",
		Short: "Explain a status code, or list the catalog",
		Long: `Without arguments, list every known status code grouped by class.
With a code, print its name, class and whether the client accepts it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, class := range status.Classes {
					fmt.Fprintln(out, boldStyle(class.String()))
					for _, st := range status.Statuses(class) {
						fmt.Fprintf(out, "  %s\n", statusLine(st.Code))
					}
				}
				return nil
			}

			code, err := cast.ToIntE(strings.TrimSpace(args[0]))
			if err != nil {
				return exitWith(ExitUsage, fmt.Errorf("status code %q is not a number", args[0]))
			}
			class, ok := status.ClassOf(code)
			if !ok {
				fmt.Fprintf(out, "%s is not in the catalog\n", failStyle(code))
				return exitWith(ExitResponse, nil)
			}

			verdict := okStyle("accepted")
			if !status.IsAcceptable(code) {
				verdict = failStyle("rejected")
			}
			fmt.Fprintf(out, "%s  class=%s  %s\n", statusLine(code), class, verdict)
			return nil
		},
	}
}
