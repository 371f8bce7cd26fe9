package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fleet-packages/internal/app"
	"fleet-packages/internal/types"
)

func newCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare INSTALLED CANDIDATE [RELEASE]",
		Short: "Classify a single installed/candidate/release triple",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.CompareRequest{Installed: args[0], Candidate: args[1]}
			if len(args) == 3 {
				req.Release = args[2]
			}
			return runCompare(cmd, req)
		},
	}
}

func runCompare(cmd *cobra.Command, req app.CompareRequest) error {
	result, err := newAppService().Compare(req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "installed %s, candidate %s, release %s\n",
		result.Installed, result.Candidate, result.Release)
	_, _ = fmt.Fprintf(out, "status: %s\naction: %s\ntarget: %s\n",
		statusColor(result.Result.Status), result.Result.Action, result.Result.Target)
	if result.Disagrees {
		_, _ = fmt.Fprintln(out, color.YellowString("dpkg orders installed and candidate differently (%d)", *result.Dpkg))
	}
	return nil
}

func statusColor(status types.VersionStatus) string {
	switch status {
	case types.VersionErr:
		return color.RedString(status.String())
	case types.VersionWarn, types.VersionDown:
		return color.YellowString(status.String())
	case types.VersionOK:
		return color.GreenString(status.String())
	default:
		return status.String()
	}
}
