package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jandubois/check-kannel/internal/probe"
)

// Version is set at build time via -ldflags "-X github.com/jandubois/check-kannel/cmd.Version=..."
var Version = "dev"

const probeGroupID = "probes"

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var exitCode int
	root := newRootCmd(&exitCode)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		// Usage and configuration errors are reported like any other
		// plugin result so monitoring systems can parse them.
		result := &probe.Result{Status: probe.StatusUnknown, Message: err.Error()}
		fmt.Fprintln(stdout, probe.NewCheck(result))
		return result.Status.ExitCode()
	}
	return exitCode
}

func newRootCmd(exitCode *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "check-kannel",
		Short: "Check that the SMSC connections of a Kannel gateway are online",
		Long: `check-kannel fetches the XML status page of a Kannel SMS gateway and
reports OK when every SMSC connection is online, or CRITICAL listing the
connections that are not.

Output follows the monitoring-plugin convention: exit code 0 for OK, 2 for
CRITICAL and 3 for UNKNOWN (configuration errors).`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}

	root.AddGroup(&cobra.Group{ID: probeGroupID, Title: "Built-in Probes:"})

	// -h is the gateway host, so help gets no shorthand.
	root.PersistentFlags().Bool("help", false, "Help for check-kannel")
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	addProbeCommands(root, exitCode)
	return root
}

func setupLogging(cmd *cobra.Command) error {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return errors.Errorf("invalid log level %q", name)
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), level))
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
