// Command test-server runs the fetchx test endpoints on a local port.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fetchx/internal/logger"
	"github.com/wesleyorama2/fetchx/internal/testserver"
)

func main() {
	cmd := &cobra.Command{
		Use:          "test-server",
		Short:        "Serve the fetchx test endpoints",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			log, err := logger.New(logger.Config{Level: "info"})
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           testserver.Handler(),
				ReadTimeout:       5 * time.Second,
				IdleTimeout:       120 * time.Second,
				MaxHeaderBytes:    1 << 20,
				ReadHeaderTimeout: 2 * time.Second,
			}

			log.Info().Str("addr", addr).Msg("starting test server")
			log.Info().Msg("endpoints: /echo /status/{code} /delay/{ms} /redirect /text /bytes/{n} /health")

			return server.ListenAndServe()
		},
	}
	cmd.Flags().String("addr", ":8080", "Address to listen on")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
