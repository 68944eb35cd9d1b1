package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fetchx/config"
	"github.com/wesleyorama2/fetchx/http"
	"github.com/wesleyorama2/fetchx/internal/output"
	"github.com/wesleyorama2/fetchx/pkg/jsonpath"
	"github.com/wesleyorama2/fetchx/pkg/jsonschema"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run requests or suites from a configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (required)")
	cmd.Flags().StringP("environment", "e", "", "Environment to use (required)")
	cmd.Flags().StringP("request", "r", "", "Request to run")
	cmd.Flags().StringP("suite", "s", "", "Suite to run")
	cmd.Flags().Bool("2xx", false, "Treat every 2xx status as success, overriding defaults.success")
	cmd.Flags().BoolP("insecure", "k", false, "Skip TLS certificate verification")

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	environment, _ := cmd.Flags().GetString("environment")
	request, _ := cmd.Flags().GetString("request")
	suite, _ := cmd.Flags().GetString("suite")

	switch {
	case configFile == "":
		return fmt.Errorf("config file is required (--config)")
	case environment == "":
		return fmt.Errorf("environment is required (--environment)")
	case request == "" && suite == "":
		return fmt.Errorf("either --request or --suite is required")
	case request != "" && suite != "":
		return fmt.Errorf("use only one of --request or --suite")
	}

	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, "Configuration validation errors:")
		for _, e := range errs {
			fmt.Fprintf(w, "  - %s\n", e.Error())
		}
		return errReported{fmt.Errorf("%d configuration errors", len(errs))}
	}

	if err := config.ValidateEnvironment(cfg, environment); err != nil {
		return err
	}
	env := cfg.Environments[environment]

	success, _ := cfg.Defaults.SuccessPolicy()
	clientOpts := append([]http.ClientOption{http.WithSuccessPolicy(success)}, clientOptions(cmd, g)...)

	r := &runner{
		cfg:       cfg,
		env:       env,
		vars:      config.MergeEnvironments(env.Vars, nil),
		client:    http.NewClient(clientOpts...),
		formatter: g.formatter(),
		g:         g,
		out:       cmd.OutOrStdout(),
	}

	ctx := cmdContext(cmd)
	if request != "" {
		if err := config.ValidateRequest(cfg, request); err != nil {
			return err
		}
		return r.execute(ctx, request)
	}

	if err := config.ValidateSuite(cfg, suite); err != nil {
		return err
	}
	return r.executeSuite(ctx, suite)
}

// runner executes configured requests, carrying extracted variables from
// one request to the next.
type runner struct {
	cfg       *config.Config
	env       config.Environment
	vars      map[string]string
	client    *http.Client
	formatter output.FormatProvider
	g         globalFlags
	out       io.Writer
}

// executeSuite runs the suite's requests in order and stops at the first
// one that fails.
func (r *runner) executeSuite(ctx context.Context, name string) error {
	suite := r.cfg.Suites[name]

	for key, value := range suite.Vars {
		r.vars[key] = config.ProcessEnvironment(value, r.vars)
	}

	for _, requestName := range suite.Requests {
		if r.g.format == output.FormatText {
			fmt.Fprintf(r.out, "\n=== Executing request: %s ===\n\n", requestName)
		}
		if err := r.execute(ctx, requestName); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one configured request and applies its extract and schema
// steps. Extracted values become variables for later requests.
func (r *runner) execute(ctx context.Context, name string) error {
	call, err := r.cfg.BuildCall(name, r.env, r.vars)
	if err != nil {
		return err
	}

	fmt.Fprint(r.out, r.formatter.FormatRequest(
		output.DescribeRequest(call.Method, call.URL, call.Body, http.MergeOptions(call.Options...))))

	resp, err := r.client.Do(ctx, call.Method, call.URL, call.Body, call.Options...)
	if err != nil {
		fmt.Fprint(r.out, r.formatter.FormatError(err))
		return errReported{fmt.Errorf("request %s: %w", name, err)}
	}
	fmt.Fprint(r.out, r.formatter.FormatResponse(resp))

	if len(call.Extract) > 0 {
		extracted, err := jsonpath.ExtractAll(resp.Body, call.Extract)
		for _, varName := range sortedKeys(extracted) {
			r.vars[varName] = extracted[varName]
			r.g.logger.Debug().Str("request", name).Str("variable", varName).Msg("extracted variable")
			if r.g.verbose {
				fmt.Fprintf(r.out, "Extracted variable %s = %s\n", varName, extracted[varName])
			}
		}
		if err != nil {
			fmt.Fprintf(r.out, "%s Variable extraction partial or failed: %v\n", output.WarningIcon(r.g.noColor), err)
		}
	}

	if call.Schema != nil {
		schema, err := jsonschema.Compile(call.Schema)
		if err != nil {
			return fmt.Errorf("request %s: %w", name, err)
		}
		if errs := schema.Validate(resp.Body); len(errs) > 0 {
			fmt.Fprintf(r.out, "%s Schema validation failed: %v\n", output.ErrorIcon(r.g.noColor), errs)
			return errReported{fmt.Errorf("request %s: %w", name, errs)}
		}
		if r.g.verbose {
			fmt.Fprintf(r.out, "%s Schema validation passed\n", output.SuccessIcon(r.g.noColor))
		}
	}

	return nil
}
