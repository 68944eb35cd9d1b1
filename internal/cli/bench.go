package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fetchx/http"
	"github.com/wesleyorama2/fetchx/internal/bench"
	"github.com/wesleyorama2/fetchx/internal/output"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench URL",
		Short: "Send the same request many times and report latency percentiles",
		Args:  cobra.ExactArgs(1),
		RunE:  runBench,
	}
	addRequestFlags(cmd)
	addBodyFlags(cmd)

	cmd.Flags().StringP("method", "X", "GET", "HTTP method to benchmark")
	cmd.Flags().IntP("requests", "n", 100, "Total number of requests")
	cmd.Flags().IntP("concurrency", "c", 10, "Number of concurrent workers")

	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}

	opts, err := requestFlagOptions(cmd)
	if err != nil {
		return err
	}
	body, bodyOpts, err := requestBody(cmd)
	if err != nil {
		return err
	}

	method, _ := cmd.Flags().GetString("method")
	requests, _ := cmd.Flags().GetInt("requests")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	runner := bench.NewRunner(http.NewClient(clientOptions(cmd, g)...), g.logger)

	snapshot, err := runner.Run(cmdContext(cmd), bench.Config{
		Method:      strings.ToUpper(method),
		URL:         args[0],
		Body:        body,
		Options:     append(opts, bodyOpts...),
		Requests:    requests,
		Concurrency: concurrency,
	})
	if err != nil {
		return err
	}

	return writeSnapshot(cmd.OutOrStdout(), g, snapshot)
}

func writeSnapshot(w io.Writer, g globalFlags, s bench.Snapshot) error {
	switch g.format {
	case output.FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	case output.FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		fmt.Fprint(w, "---\n"+string(data))
		return nil
	}

	scheme := output.SchemeFor(g.noColor)
	fmt.Fprintf(w, "%s\n", scheme.Highlight.Sprint("Benchmark results"))
	fmt.Fprintf(w, "  Requests:   %d in %s (%.1f req/s)\n", s.Total, s.Elapsed.Round(time.Millisecond), s.RPS)
	fmt.Fprintf(w, "  Succeeded:  %s\n", scheme.Success.Sprint(s.Succeeded))
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:     %s\n", scheme.Error.Sprint(s.Failed))
		for _, f := range s.Failures {
			fmt.Fprintf(w, "    %-18s %d\n", f.Kind, f.Count)
		}
	}
	fmt.Fprintln(w, "  Latency:")
	fmt.Fprintf(w, "    min  %s\n", s.Latency.Min)
	fmt.Fprintf(w, "    mean %s\n", s.Latency.Mean)
	fmt.Fprintf(w, "    p50  %s\n", s.Latency.P50)
	fmt.Fprintf(w, "    p90  %s\n", s.Latency.P90)
	fmt.Fprintf(w, "    p95  %s\n", s.Latency.P95)
	fmt.Fprintf(w, "    p99  %s\n", s.Latency.P99)
	fmt.Fprintf(w, "    max  %s\n", s.Latency.Max)
	return nil
}
