package cli

import "github.com/spf13/cobra"

func newPutCmd() *cobra.Command {
	return newRequestCmd("PUT", true)
}
