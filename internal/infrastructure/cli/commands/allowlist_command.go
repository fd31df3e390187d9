package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
)

// NewAllowlistCommand lists the commands fix apply may execute and the
// directories it may move to the Trash.
func NewAllowlistCommand() *cobra.Command {
	var paths bool
	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "Show the execution and trash allowlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if paths {
				displayTrashAllowlist(out)
				return nil
			}
			return displayCommandAllowlist(out)
		},
	}
	cmd.Flags().BoolVar(&paths, "paths", false, "Show TRASH_MOVE path allowlist instead of commands")
	return cmd
}

func displayCommandAllowlist(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION ID\tRISK\tCOMMAND\tCONFIRM\tAS USER")
	for _, e := range security.Entries() {
		asUser := "no"
		if e.AsInvokingUser {
			asUser = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t'%s' then '%s'\t%s\n",
			e.ActionID, e.Risk, e.Cmd, e.Usage, e.Confirm.ConfirmToken, e.Confirm.FinalConfirmToken, asUser)
	}
	return tw.Flush()
}

func displayTrashAllowlist(out io.Writer) {
	fmt.Fprintln(out, "Trashable directories (relative to home):")
	for _, p := range security.TrashExactTargets() {
		fmt.Fprintf(out, "  ~/%s\n", p)
	}
	fmt.Fprintln(out, "Children only (the directory itself is kept):")
	for _, p := range security.TrashPrefixRoots() {
		fmt.Fprintf(out, "  ~/%s/*\n", p)
	}
}
