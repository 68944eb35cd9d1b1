package cli

import "github.com/spf13/cobra"

func newGetCmd() *cobra.Command {
	return newRequestCmd("GET", false)
}
