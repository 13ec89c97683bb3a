package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sevigo/stk-reviewer/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	renderReport bool
	prURL        string
)

var rootCmd = &cobra.Command{
	Use:   "stk-reviewer",
	Short: "stk-reviewer sends source files to an STK AI quick command for code review.",
	Long: `stk-reviewer collects source files from a directory, or the changes between two
branches, submits them to a StackSpot AI quick command and merges the reviews
into a single markdown report.

Without a subcommand it behaves like review-dir.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runReviewDir,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyConfigFile, "", "Path to a YAML config file")

	flags.String(config.KeyQuickCommandID, "", "Remote quick command ID (env CR_STK_AI_ID_QUICK_COMMAND)")
	flags.String(config.KeyClientID, "", "Client ID used to connect to STK AI (env CR_STK_AI_CLIENT_ID)")
	flags.String(config.KeyClientSecret, "", "Client secret used to connect to STK AI (env CR_STK_AI_CLIENT_SECRET)")
	flags.String(config.KeyHost, config.DefaultHost, "STK AI API host (env CR_STK_AI_HOST)")
	flags.String(config.KeyTokenHost, config.DefaultTokenHost, "STK AI token host (env CR_STK_AI_HOST_TOKEN)")
	flags.String(config.KeyRealm, config.DefaultRealm, "Realm used to generate the token (env CR_STK_AI_REALM)")
	flags.Int(config.KeyMaxAttempts, config.DefaultMaxAttempts, "Maximum number of polls per execution (env CR_STK_AI_MAX_ATTEMPTS)")
	flags.String(config.KeyRetryTimeout, config.DefaultRetryTimeout, "Seconds to wait between polls (env CR_STK_AI_RETRY_TIMEOUT)")
	flags.Int(config.KeyConcurrency, 0, "Concurrent polls, 0 for one per CPU (env CR_STK_AI_CONCURRENCY)")
	flags.String(config.KeyHTTPTimeout, config.DefaultHTTPTimeout, "Per-request HTTP timeout in seconds (env CR_STK_AI_HTTP_TIMEOUT)")
	flags.String(config.KeyHTTPProxy, "", "HTTP proxy (env HTTP_PROXY)")
	flags.String(config.KeyHTTPSProxy, "", "HTTPS proxy (env HTTPS_PROXY)")

	flags.StringP(config.KeyDirectory, "d", config.DefaultDirectory, "Directory where the files are located")
	flags.StringP(config.KeyExtension, "e", config.DefaultExtension, "File extension to be reviewed")
	flags.StringSlice(config.KeyIgnoredFiles, nil, "Files to ignore (glob patterns)")
	flags.StringSlice(config.KeyIgnoredDirectories, nil, "Directories to ignore (glob patterns)")
	flags.String(config.KeyReportDirectory, config.DefaultReportDirectory, "Directory where the report is written")
	flags.String(config.KeyReportFilename, config.DefaultReportFilename, "Report file name")
	flags.Int(config.KeyLimit, 0, "Maximum number of files sent, 0 for no limit (env CR_STK_AI_LIMIT)")

	flags.String(config.KeyLogLevel, "info", "Log level: debug, info, warn, error")
	flags.String(config.KeyLogFormat, "text", "Log format: text or json")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")
	flags.String(config.KeyGitHubToken, "", "GitHub token used with --pr-url (env GITHUB_TOKEN)")

	flags.BoolVar(&renderReport, "render", false, "Print the rendered report to the terminal")
	flags.StringVar(&prURL, "pr-url", "", "Publish the report as a comment on this pull request")

	rootCmd.SetVersionTemplate("stk-reviewer {{.Version}}\n")
}

// initConfig registers defaults, environment bindings and flag bindings.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "render" || f.Name == "pr-url" {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			slog.Error("Error binding flag", "flag", f.Name, "error", err)
			os.Exit(1)
		}
	})
}
