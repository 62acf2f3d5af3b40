package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/studiowebux/postcli/internal/cli"
	"github.com/studiowebux/postcli/internal/config"
	"github.com/studiowebux/postcli/internal/keybinds"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/mock"
	"github.com/studiowebux/postcli/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "postcli",
	Short: "postcli - terminal API client",
	Long: `postcli composes HTTP requests and sends them through a backend proxy
that records every call in your history.

Run without arguments to start the interactive TUI. Subcommands run one
operation and exit, which suits scripts and pipes.

Examples:
  postcli                                   # Start interactive TUI
  postcli login -u alice                    # Log in, prompting for the password
  postcli send https://api.example.com/todos
  postcli send -X POST -d '{"title":"x"}' https://api.example.com/todos
  postcli send https://api.example.com/todos -q '[0].title'
  postcli history                           # List history
  postcli history replay                    # Pick an entry and send it again
  postcli history stats                     # Calls per endpoint
  postcli mock --port 5000                  # Run a development backend`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(tui.RunOptions{APIURL: flagAPIURL, Debug: flagDebug})
	},
}

// Global flags
var (
	flagAPIURL string
	flagDebug  bool
)

// Flags for login/register
var (
	flagUsername string
	flagPassword string
)

// Flags for send and the history subcommands
var (
	flagMethod  string
	flagHeaders string
	flagBody    string
	flagOutput  string
	flagQuery   string
	flagCopy    bool
	flagJSON    bool
)

// Flags for mock
var (
	mockPort       int
	mockHost       string
	mockSecret     string
	mockConfigPath string
)

// Flags for keybinds
var (
	keybindsForce bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Authenticate(ctx, cli.AuthOptions{Username: flagUsername, Password: flagPassword})
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Authenticate(ctx, cli.AuthOptions{Username: flagUsername, Password: flagPassword, Register: true})
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			app.Logout()
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user and token expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Whoami()
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <url>",
	Short: "Send a request through the backend proxy",
	Long: `Send a request through the backend proxy and print the response.

Headers (-H) must be a JSON object. The body (-d) must be JSON and is only
sent for POST, PUT and PATCH. The command fails when the target answers
with a 4xx or 5xx status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Send(ctx, cli.SendOptions{
				URL:           args[0],
				Method:        flagMethod,
				Headers:       flagHeaders,
				Body:          flagBody,
				OutputOptions: outputOptions(),
			})
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the request history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.History(ctx, flagJSON)
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the stored response of a history entry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Show(ctx, firstArg(args), outputOptions())
		})
	},
}

var historyReplayCmd = &cobra.Command{
	Use:   "replay [id]",
	Short: "Send a history entry again",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Replay(ctx, firstArg(args), outputOptions())
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize calls per endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
			return app.Stats(ctx, flagOutput)
		})
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a development backend",
	Long: `Run an in-memory backend implementing /api/register, /api/login,
/api/history and /api/proxy. Users and history are lost on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMock(cmd)
	},
}

var keybindsCmd = &cobra.Command{
	Use:   "keybinds",
	Short: "Manage TUI keybindings",
}

var keybindsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default keybindings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := keybindsPath()
		if err != nil {
			return err
		}
		return cli.WriteDefaultKeybinds(cmd.OutOrStdout(), path, keybindsForce)
	},
}

var keybindsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the keybindings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := keybindsPath()
		if err != nil {
			return err
		}
		return cli.CheckKeybinds(cmd.OutOrStdout(), path)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend base URL (overrides "+config.EnvAPIURL+" and config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	// login/register flags
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&flagUsername, "username", "u", "", "Username (prompted when missing)")
		c.Flags().StringVarP(&flagPassword, "password", "p", "", "Password (prompted when missing)")
	}

	// send flags
	sendCmd.Flags().StringVarP(&flagMethod, "method", "X", "GET", "HTTP method (GET/POST/PUT/DELETE/PATCH)")
	sendCmd.Flags().StringVarP(&flagHeaders, "headers", "H", "", "Headers as a JSON object")
	sendCmd.Flags().StringVarP(&flagBody, "data", "d", "", "Body as JSON (POST/PUT/PATCH)")

	// Output flags shared by every command that prints a response
	for _, c := range []*cobra.Command{sendCmd, historyShowCmd, historyReplayCmd} {
		c.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml/body)")
		c.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query or $(shell command) applied to the body")
		c.Flags().BoolVar(&flagCopy, "copy", false, "Copy the response body to the clipboard")
	}

	historyCmd.Flags().BoolVar(&flagJSON, "json", false, "Print history as JSON")
	historyStatsCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml)")

	// mock flags
	mockCmd.Flags().IntVar(&mockPort, "port", 0, "Port to listen on (default 5000)")
	mockCmd.Flags().StringVar(&mockHost, "host", "", "Host to bind (default localhost)")
	mockCmd.Flags().StringVar(&mockSecret, "secret", "", "Token signing secret")
	mockCmd.Flags().StringVarP(&mockConfigPath, "config", "c", "", "Backend config file (yaml or json)")

	keybindsInitCmd.Flags().BoolVarP(&keybindsForce, "force", "f", false, "Overwrite an existing file")

	// Add subcommands
	historyCmd.AddCommand(historyShowCmd, historyReplayCmd, historyStatsCmd)
	keybindsCmd.AddCommand(keybindsInitCmd, keybindsCheckCmd)
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, sendCmd, historyCmd, mockCmd, keybindsCmd)
}

// withApp opens the CLI app for one command and closes it afterwards
func withApp(ctx context.Context, fn func(ctx context.Context, app *cli.App) error) error {
	app, err := cli.Open(cli.Options{APIURL: flagAPIURL, Debug: flagDebug})
	if err != nil {
		return err
	}
	defer app.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, app)
}

func outputOptions() cli.OutputOptions {
	return cli.OutputOptions{Format: flagOutput, Query: flagQuery, Copy: flagCopy}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func keybindsPath() (string, error) {
	if err := config.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize config: %w", err)
	}
	return keybinds.DefaultConfigPath(config.ConfigDir), nil
}

// runMock starts the development backend and blocks until interrupted
func runMock(cmd *cobra.Command) error {
	cfg := mock.DefaultConfig()
	if mockConfigPath != "" {
		loaded, err := mock.LoadConfig(mockConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if mockPort != 0 {
		cfg.Port = mockPort
	}
	if mockHost != "" {
		cfg.Host = mockHost
	}
	if mockSecret != "" {
		cfg.Secret = mockSecret
	}

	level := logging.ParseLevel("info")
	if flagDebug {
		level = logging.ParseLevel("debug")
	}
	logger := logging.New(logging.Config{Level: level, Output: os.Stderr})

	srv, err := mock.NewServer(cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Development backend listening on %s (Ctrl+C to stop)\n", srv.GetAddress())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
	return srv.Stop()
}
