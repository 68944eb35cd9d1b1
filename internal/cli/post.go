package cli

import "github.com/spf13/cobra"

func newPostCmd() *cobra.Command {
	return newRequestCmd("POST", true)
}
