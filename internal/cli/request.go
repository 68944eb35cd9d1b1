package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fetchx/config"
	"github.com/wesleyorama2/fetchx/http"
	"github.com/wesleyorama2/fetchx/internal/output"
	"github.com/wesleyorama2/fetchx/pkg/jsonpath"
	"github.com/wesleyorama2/fetchx/pkg/jsonschema"
)

// newRequestCmd builds a one-shot request command for method. Commands
// for methods that carry a body get the body flags as well.
func newRequestCmd(method string, withBody bool) *cobra.Command {
	verb := strings.ToLower(method)
	cmd := &cobra.Command{
		Use:   verb + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, method, args[0], withBody)
		},
	}

	addRequestFlags(cmd)
	cmd.Flags().StringArrayP("extract", "x", []string{}, "JSONPath to print from the response body (can be used multiple times)")
	cmd.Flags().String("schema", "", "JSON Schema file (JSON or YAML) the response body must satisfy")
	if withBody {
		addBodyFlags(cmd)
	}

	return cmd
}

// addRequestFlags registers the options shared by every command that
// sends ad hoc requests.
func addRequestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayP("header", "H", []string{}, "HTTP headers to include as 'Key: Value' (can be used multiple times)")
	flags.StringArrayP("query", "q", []string{}, "Query parameters as key=value; repeat a key to send a list")
	flags.String("response-type", "", "How to parse the response body: json, text or blob (default json)")
	flags.String("observe", "", "What to return on success: body or response (default body)")
	flags.StringP("timeout", "t", "30s", "Request timeout as a duration or milliseconds")
	flags.Bool("2xx", false, "Treat every 2xx status as success instead of 200 only")
	flags.BoolP("insecure", "k", false, "Skip TLS certificate verification")
}

func addBodyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("data", "d", "", "Raw data to send in the request body")
	flags.StringP("json", "j", "", "JSON data to send in the request body")
	flags.StringArrayP("form", "F", []string{}, "Form fields as key=value; sent urlencoded, or multipart with --file")
	flags.StringArray("file", []string{}, "Files to upload as field=path (multipart)")
	flags.String("content-type", "", "Body encoding: json, text, multipart or urlencoded (default json)")
}

func runRequest(cmd *cobra.Command, method, url string, withBody bool) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}

	opts, err := requestFlagOptions(cmd)
	if err != nil {
		return err
	}

	var body any
	if withBody {
		var bodyOpts []http.Option
		body, bodyOpts, err = requestBody(cmd)
		if err != nil {
			return err
		}
		opts = append(opts, bodyOpts...)
	}

	extract, _ := cmd.Flags().GetStringArray("extract")
	schemaFile, _ := cmd.Flags().GetString("schema")

	var schema *jsonschema.Schema
	if schemaFile != "" {
		if schema, err = jsonschema.CompileFile(schemaFile); err != nil {
			return err
		}
	}

	client := http.NewClient(clientOptions(cmd, g)...)
	formatter := g.formatter()
	out := cmd.OutOrStdout()

	fmt.Fprint(out, formatter.FormatRequest(
		output.DescribeRequest(method, url, body, http.MergeOptions(opts...))))

	resp, err := client.Do(cmdContext(cmd), method, url, body, opts...)
	if err != nil {
		fmt.Fprint(out, formatter.FormatError(err))
		return errReported{err}
	}
	fmt.Fprint(out, formatter.FormatResponse(resp))

	return checkResponse(cmd, g, resp, namedPaths(extract), schema)
}

// checkResponse prints extracted values and runs schema validation.
// It returns an errReported when either fails.
func checkResponse(cmd *cobra.Command, g globalFlags, resp *http.Response, extract map[string]string, schema *jsonschema.Schema) error {
	out := cmd.OutOrStdout()
	var failed error

	if len(extract) > 0 {
		values, err := jsonpath.ExtractAll(resp.Body, extract)
		for _, name := range sortedKeys(values) {
			fmt.Fprintf(out, "%s = %s\n", name, values[name])
		}
		if err != nil {
			fmt.Fprintf(out, "%s Extraction failed: %v\n", output.ErrorIcon(g.noColor), err)
			failed = err
		}
	}

	if schema != nil {
		if errs := schema.Validate(resp.Body); len(errs) > 0 {
			fmt.Fprintf(out, "%s Schema validation failed:\n", output.ErrorIcon(g.noColor))
			for _, e := range errs {
				fmt.Fprintf(out, "  - %v\n", e)
			}
			failed = errs
		} else if g.verbose {
			fmt.Fprintf(out, "%s Schema validation passed\n", output.SuccessIcon(g.noColor))
		}
	}

	if failed != nil {
		return errReported{failed}
	}
	return nil
}

// requestFlagOptions turns the shared request flags into call options.
func requestFlagOptions(cmd *cobra.Command) ([]http.Option, error) {
	var opts []http.Option

	headerFlags, _ := cmd.Flags().GetStringArray("header")
	if len(headerFlags) > 0 {
		headers := make(map[string]string, len(headerFlags))
		for _, header := range headerFlags {
			parts := strings.SplitN(header, ":", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("invalid header %q: want 'Key: Value'", header)
			}
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
		opts = append(opts, http.WithHeaders(headers))
	}

	queryFlags, _ := cmd.Flags().GetStringArray("query")
	if len(queryFlags) > 0 {
		params, err := parseQueryFlags(queryFlags)
		if err != nil {
			return nil, err
		}
		opts = append(opts, http.WithParams(params))
	}

	if rt, _ := cmd.Flags().GetString("response-type"); rt != "" {
		opts = append(opts, http.WithResponseType(http.ResponseType(rt)))
	}
	if observe, _ := cmd.Flags().GetString("observe"); observe != "" {
		opts = append(opts, http.WithObserve(http.ObserveMode(observe)))
	}

	timeoutFlag, _ := cmd.Flags().GetString("timeout")
	timeout, err := config.ParseTimeout(timeoutFlag)
	if err != nil {
		return nil, err
	}
	opts = append(opts, http.WithTimeout(timeout))

	return opts, nil
}

// parseQueryFlags collects key=value pairs. A key given more than once
// becomes a list.
func parseQueryFlags(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q: want key=value", pair)
		}
		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case []any:
			params[key] = append(existing, value)
		default:
			params[key] = []any{existing, value}
		}
	}
	return params, nil
}

// requestBody reads the body flags. At most one of --data, --json and
// --form/--file may be used.
func requestBody(cmd *cobra.Command) (any, []http.Option, error) {
	data, _ := cmd.Flags().GetString("data")
	jsonData, _ := cmd.Flags().GetString("json")
	formFlags, _ := cmd.Flags().GetStringArray("form")
	fileFlags, _ := cmd.Flags().GetStringArray("file")
	contentType, _ := cmd.Flags().GetString("content-type")

	sources := 0
	for _, set := range []bool{data != "", jsonData != "", len(formFlags)+len(fileFlags) > 0} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, nil, fmt.Errorf("use only one of --data, --json or --form/--file")
	}

	var opts []http.Option
	if contentType != "" {
		opts = append(opts, http.WithContentType(http.ContentType(contentType)))
	}

	switch {
	case data != "":
		return []byte(data), opts, nil

	case jsonData != "":
		var v any
		if err := json.Unmarshal([]byte(jsonData), &v); err != nil {
			return nil, nil, fmt.Errorf("invalid --json body: %w", err)
		}
		if contentType == "" {
			opts = append(opts, http.WithContentType(http.ContentTypeJSON))
		}
		return v, opts, nil

	case len(fileFlags) > 0:
		form, err := multipartFromFlags(formFlags, fileFlags)
		if err != nil {
			return nil, nil, err
		}
		if contentType == "" {
			opts = append(opts, http.WithContentType(http.ContentTypeMultipart))
		}
		return form, opts, nil

	case len(formFlags) > 0:
		fields, err := keyValues(formFlags, "form field")
		if err != nil {
			return nil, nil, err
		}
		if contentType == "" {
			opts = append(opts, http.WithContentType(http.ContentTypeURLEncoded))
			return fields, opts, nil
		}
		if http.ContentType(contentType) == http.ContentTypeMultipart {
			form, err := multipartFromFlags(formFlags, nil)
			return form, opts, err
		}
		return fields, opts, nil
	}

	return nil, opts, nil
}

func multipartFromFlags(formFlags, fileFlags []string) (*http.MultipartForm, error) {
	fields, err := keyValues(formFlags, "form field")
	if err != nil {
		return nil, err
	}
	files, err := keyValues(fileFlags, "file")
	if err != nil {
		return nil, err
	}

	form := http.NewMultipartForm()
	for _, name := range sortedKeys(fields) {
		form.AddField(name, fields[name])
	}
	for _, field := range sortedKeys(files) {
		path := files[field]
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading upload for %s: %w", field, err)
		}
		form.AddFile(field, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
	}
	return form, nil
}

func keyValues(pairs []string, what string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid %s %q: want key=value", what, pair)
		}
		values[key] = value
	}
	return values, nil
}

// namedPaths keys each --extract path by itself so results print in the
// order of the path text.
func namedPaths(paths []string) map[string]string {
	named := make(map[string]string, len(paths))
	for _, p := range paths {
		named[p] = p
	}
	return named
}

func clientOptions(cmd *cobra.Command, g globalFlags) []http.ClientOption {
	opts := []http.ClientOption{http.WithLogger(g.logger)}
	if accept2xx, _ := cmd.Flags().GetBool("2xx"); accept2xx {
		opts = append(opts, http.WithSuccessPolicy(http.Status2xx))
	}
	if insecure, _ := cmd.Flags().GetBool("insecure"); insecure {
		opts = append(opts, http.WithInsecureSkipVerify())
	}
	return opts
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
