// Copyright (c) 2025, Wesley Brown
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import "github.com/spf13/cobra"

func newDeleteCmd() *cobra.Command {
	return newRequestCmd("DELETE", false)
}
