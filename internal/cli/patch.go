package cli

import "github.com/spf13/cobra"

func newPatchCmd() *cobra.Command {
	return newRequestCmd("PATCH", true)
}
