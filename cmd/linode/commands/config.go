package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/linode-client/internal/constants"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// Config is the CLI configuration file.
type Config struct {
	API            string     `json:"api,omitempty"              yaml:"api,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	LoginURL       string     `json:"login_url,omitempty"        yaml:"login_url,omitempty"`
	Output         string     `json:"output,omitempty"           yaml:"output,omitempty"`
	PageSize       int        `json:"page_size,omitempty"        yaml:"page_size,omitempty"`
	RetryMax       int        `json:"retry_max,omitempty"        yaml:"retry_max,omitempty"`
	RateLimit      float64    `json:"rate_limit,omitempty"       yaml:"rate_limit,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigTokenCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configuration file contents. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := maskSecrets(loadConfig())

			format, err := outputFormat()
			if err != nil {
				return err
			}

			switch format {
			case constants.FormatJSON:
				return renderJSON(cmd.OutOrStdout(), config)
			case constants.FormatYAML:
				return renderYAML(cmd.OutOrStdout(), config)
			default:
				return displayConfigTable(cmd.OutOrStdout(), config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys: api, output, page_size, retry_max,
rate_limit, client_id, client_secret, refresh_token, login_url.`,
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			viper.Set(args[0], args[1])

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := unsetConfigValue(config, args[0])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			viper.Set(args[0], "")

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func newConfigTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Store a personal access token",
		Long:  "Read a personal access token from the terminal (without echo) or from stdin and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return err
			}

			config := loadConfig()
			config.Token = token
			config.TokenExpiresAt = nil

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			viper.Set(configKeyToken, token)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token saved")

			return nil
		},
	}
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Token: ")

		secret, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return validToken(string(secret))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return validToken(line)
}

func validToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", constants.ErrEmptyToken
	}

	return token, nil
}

// loadConfig reads the merged settings. Flags and LINODE_* environment
// variables win over the file.
func loadConfig() *Config {
	return &Config{
		API:            viper.GetString(configKeyAPI),
		Token:          viper.GetString(configKeyToken),
		TokenExpiresAt: timePointer(viper.GetTime("token_expires_at")),
		RefreshToken:   viper.GetString(configKeyRefreshToken),
		ClientID:       viper.GetString(configKeyClientID),
		ClientSecret:   viper.GetString(configKeyClientSecret),
		LoginURL:       viper.GetString(configKeyLoginURL),
		Output:         viper.GetString(configKeyOutput),
		PageSize:       viper.GetInt(configKeyPageSize),
		RetryMax:       viper.GetInt(configKeyRetryMax),
		RateLimit:      viper.GetFloat64(configKeyRateLimit),
	}
}

func timePointer(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

// configFilePath returns the file in use, or the default location.
func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".linode", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setConfigValue validates and applies one key.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case configKeyAPI:
		config.API = value
	case configKeyOutput:
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			config.Output = value
		default:
			return fmt.Errorf("%w: %q", constants.ErrInvalidOutput, value)
		}
	case configKeyPageSize:
		size, err := strconv.Atoi(value)
		if err != nil || size < constants.MinPageSize || size > constants.MaxPageSize {
			return fmt.Errorf("%w: %q must be between %d and %d",
				linode.ErrInvalidPageSize, value, constants.MinPageSize, constants.MaxPageSize)
		}

		config.PageSize = size
	case configKeyRetryMax:
		retryMax, err := strconv.Atoi(value)
		if err != nil || retryMax < 0 {
			return fmt.Errorf("invalid %s %q: must be a non-negative integer", key, value)
		}

		config.RetryMax = retryMax
	case configKeyRateLimit:
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate < 0 {
			return fmt.Errorf("invalid %s %q: must be a non-negative number", key, value)
		}

		config.RateLimit = rate
	case configKeyClientID:
		config.ClientID = value
	case configKeyClientSecret:
		config.ClientSecret = value
	case configKeyRefreshToken:
		config.RefreshToken = value
	case configKeyLoginURL:
		config.LoginURL = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case configKeyAPI:
		config.API = ""
	case configKeyToken:
		config.Token = ""
		config.TokenExpiresAt = nil
	case configKeyOutput:
		config.Output = ""
	case configKeyPageSize:
		config.PageSize = 0
	case configKeyRetryMax:
		config.RetryMax = 0
	case configKeyRateLimit:
		config.RateLimit = 0
	case configKeyClientID:
		config.ClientID = ""
	case configKeyClientSecret:
		config.ClientSecret = ""
	case configKeyRefreshToken:
		config.RefreshToken = ""
	case configKeyLoginURL:
		config.LoginURL = ""
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func maskSecrets(config *Config) *Config {
	masked := *config

	if masked.Token != "" {
		masked.Token = constants.MaskedSecret
	}

	if masked.RefreshToken != "" {
		masked.RefreshToken = constants.MaskedSecret
	}

	if masked.ClientSecret != "" {
		masked.ClientSecret = constants.MaskedSecret
	}

	return &masked
}

func displayConfigTable(w io.Writer, config *Config) error {
	orNA := func(value string) string {
		if value == "" {
			return constants.NotAvailable
		}

		return value
	}

	expires := constants.NotAvailable
	if config.TokenExpiresAt != nil {
		expires = config.TokenExpiresAt.Format(time.RFC3339)
	}

	rows := [][]string{
		{"API", orNA(config.API)},
		{"Token", orNA(config.Token)},
		{"Token Expires", expires},
		{"Refresh Token", orNA(config.RefreshToken)},
		{"Client ID", orNA(config.ClientID)},
		{"Output", orNA(config.Output)},
		{"Page Size", strconv.Itoa(config.PageSize)},
		{"Retry Max", strconv.Itoa(config.RetryMax)},
		{"Rate Limit", strconv.FormatFloat(config.RateLimit, 'f', -1, 64)},
	}

	return renderTable(w, []string{"Setting", "Value"}, rows)
}
