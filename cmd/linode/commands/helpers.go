package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/linode-client/internal/auth"
	"github.com/fivetwenty-io/linode-client/internal/client"
	"github.com/fivetwenty-io/linode-client/internal/constants"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
	"github.com/fivetwenty-io/linode-client/pkg/lnclient"
)

const (
	// JSON and YAML indentation.
	defaultJSONIndent = 2

	configKeyAPI          = "api"
	configKeyToken        = "token"
	configKeyRefreshToken = "refresh_token"
	configKeyClientID     = "client_id"
	configKeyClientSecret = "client_secret"
	configKeyLoginURL     = "login_url"
	configKeyOutput       = "output"
	configKeyPageSize     = "page_size"
	configKeyRetryMax     = "retry_max"
	configKeyRateLimit    = "rate_limit"
	configKeyVerbose      = "verbose"
)

// AddCommands registers every command group on root.
func AddCommands(root *cobra.Command, version, commit, date string) {
	root.AddCommand(NewVersionCommand(version, commit, date))
	root.AddCommand(NewConfigCommand())
	root.AddCommand(NewInstancesCommand())
	root.AddCommand(NewVolumesCommand())
	root.AddCommand(NewDomainsCommand())
	root.AddCommand(NewNodeBalancersCommand())
	root.AddCommand(NewRegionsCommand())
	root.AddCommand(NewTypesCommand())
	root.AddCommand(NewImagesCommand())
}

// outputFormat returns the validated --output value.
func outputFormat() (string, error) {
	output := viper.GetString(configKeyOutput)
	switch output {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutput, output)
	}
}

// newLogger builds the console logger. Verbose output includes the
// per-page and per-request debug lines of the client.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// createClient builds an API client from the merged flag, environment, and
// file configuration. The returned context carries the console logger.
func createClient(cmd *cobra.Command, requireAuth bool) (*linode.Client, context.Context, error) {
	logger := newLogger(cmd.ErrOrStderr(), viper.GetBool(configKeyVerbose))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = logger.WithContext(ctx)

	config := linode.DefaultConfig()
	config.APIEndpoint = lnclient.NormalizeEndpoint(viper.GetString(configKeyAPI))
	config.Token = viper.GetString(configKeyToken)
	config.Debug = viper.GetBool(configKeyVerbose)
	config.Logger = lnclient.NewZerologLogger(logger)

	if retryMax := viper.GetInt(configKeyRetryMax); retryMax > 0 {
		config.RetryMax = retryMax
	}

	if rateLimit := viper.GetFloat64(configKeyRateLimit); rateLimit > 0 {
		config.RateLimit = rateLimit
		config.RateBurst = 1
	}

	if viper.GetString(configKeyRefreshToken) != "" && viper.GetString(configKeyClientID) != "" {
		tokenManager := auth.NewConfigTokenManager(&auth.OAuth2Config{
			TokenURL:     strings.TrimSuffix(loginURL(), "/") + "/oauth/token",
			ClientID:     viper.GetString(configKeyClientID),
			ClientSecret: viper.GetString(configKeyClientSecret),
			RefreshToken: viper.GetString(configKeyRefreshToken),
			AccessToken:  config.Token,
		}, NewConfigPersister())

		cli, err := client.NewWithTokenManager(config, tokenManager)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create client with token manager: %w", err)
		}

		return cli, ctx, nil
	}

	if requireAuth && config.Token == "" {
		return nil, nil, constants.ErrNoTokenConfigured
	}

	cli, err := lnclient.New(ctx, config)
	if err != nil {
		return nil, nil, err
	}

	return cli, ctx, nil
}

func loginURL() string {
	if url := viper.GetString(configKeyLoginURL); url != "" {
		return url
	}

	return auth.LinodeLoginURL
}

// parseID keeps numeric ids numeric so filters and bodies carry numbers.
func parseID(arg string) interface{} {
	if n, err := strconv.Atoi(arg); err == nil {
		return n
	}

	return arg
}

// resourceView is what every typed resource exposes through its embedded
// *linode.Resource.
type resourceView interface {
	ID() interface{}
	Raw() map[string]json.RawMessage
	Delete(ctx context.Context) error
	String() string
}

// record decodes the cached payload for JSON and YAML output.
func record(view resourceView) (map[string]interface{}, error) {
	raw := view.Raw()
	if raw == nil {
		return map[string]interface{}{"id": view.ID()}, nil
	}

	out := make(map[string]interface{}, len(raw))

	for key, value := range raw {
		var decoded interface{}

		err := json.Unmarshal(value, &decoded)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}

		out[key] = decoded
	}

	return out, nil
}

// cell renders one attribute for a table. Embedded objects show their id.
func cell(raw map[string]json.RawMessage, name string) string {
	value, ok := raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return constants.NotAvailable
	}

	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return string(value)
	}

	switch v := decoded.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}

		return strings.Join(parts, ",")
	case map[string]interface{}:
		if id, ok := v["id"]; ok {
			return fmt.Sprint(id)
		}

		compact := &bytes.Buffer{}
		if err := json.Compact(compact, value); err != nil {
			return string(value)
		}

		return compact.String()
	default:
		return fmt.Sprint(v)
	}
}

func renderJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultJSONIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)

	headerCells := make([]interface{}, 0, len(header))
	for _, name := range header {
		headerCells = append(headerCells, name)
	}

	table.Header(headerCells...)

	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, value := range row {
			cells = append(cells, value)
		}

		_ = table.Append(cells...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// outputResources renders a list of resources in the selected format.
func outputResources[T resourceView](cmd *cobra.Command, items []T, columns []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	switch format {
	case constants.FormatJSON, constants.FormatYAML:
		records := make([]map[string]interface{}, 0, len(items))

		for _, item := range items {
			rec, err := record(item)
			if err != nil {
				return err
			}

			records = append(records, rec)
		}

		if format == constants.FormatJSON {
			return renderJSON(w, records)
		}

		return renderYAML(w, records)
	default:
		if len(items) == 0 {
			_, _ = io.WriteString(w, "No resources found\n")

			return nil
		}

		header := make([]string, 0, len(columns))
		for _, column := range columns {
			header = append(header, strings.ToUpper(strings.ReplaceAll(column, "_", " ")))
		}

		rows := make([][]string, 0, len(items))

		for _, item := range items {
			raw := item.Raw()

			row := make([]string, 0, len(columns))
			for _, column := range columns {
				row = append(row, cell(raw, column))
			}

			rows = append(rows, row)
		}

		return renderTable(w, header, rows)
	}
}

// outputResource renders one resource; tables list every attribute.
func outputResource(cmd *cobra.Command, item resourceView) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	rec, err := record(item)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	switch format {
	case constants.FormatJSON:
		return renderJSON(w, rec)
	case constants.FormatYAML:
		return renderYAML(w, rec)
	default:
		raw := item.Raw()

		keys := make([]string, 0, len(raw))
		for key := range raw {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		rows := make([][]string, 0, len(keys))
		for _, key := range keys {
			rows = append(rows, []string{key, cell(raw, key)})
		}

		return renderTable(w, []string{"Property", "Value"}, rows)
	}
}

// outputMessage prints a confirmation line in table mode and a small status
// document otherwise.
func outputMessage(cmd *cobra.Command, action string, target fmt.Stringer) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	status := map[string]string{"action": action, "resource": target.String()}

	switch format {
	case constants.FormatJSON:
		return renderJSON(w, status)
	case constants.FormatYAML:
		return renderYAML(w, status)
	default:
		_, _ = fmt.Fprintf(w, "%s %s\n", action, target)

		return nil
	}
}
