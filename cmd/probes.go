package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jandubois/check-kannel/internal/config"
	"github.com/jandubois/check-kannel/internal/probe"
	"github.com/jandubois/check-kannel/internal/probes"
	"github.com/jandubois/check-kannel/internal/probes/kannelstatus"
)

func addProbeCommands(root *cobra.Command, exitCode *int) {
	root.Flags().BoolP("version", "v", false, "Print version and exit")
	root.Flags().Bool("describe", false, "Output built-in probe descriptions as JSON array")
	addCheckFlags(root)

	// Without a subcommand the root runs the gateway check, so the binary
	// can be dropped into a monitoring system as a plain plugin.
	root.Args = cobra.NoArgs
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "check-kannel version %s\n", Version)
			return nil
		}
		if describe, _ := cmd.Flags().GetBool("describe"); describe {
			return printDescriptions(cmd.OutOrStdout())
		}
		return runKannelStatus(cmd, exitCode)
	}

	statusCmd := &cobra.Command{
		Use:     kannelstatus.Name,
		Short:   "Check that the SMSC connections of a Kannel gateway are online",
		GroupID: probeGroupID,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKannelStatus(cmd, exitCode)
		},
	}
	addCheckFlags(statusCmd)
	root.AddCommand(statusCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("host", "h", config.DefaultHost, "Gateway hostname")
	cmd.Flags().IntP("port", "P", config.DefaultPort, "Gateway admin port")
	cmd.Flags().StringP("password", "p", "", "Status page password (or "+config.PasswordEnv+" env var)")
	cmd.Flags().StringP("id", "i", "", "Regular expression an SMSC id must match to be checked")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Request timeout")
	cmd.Flags().String("max-body-size", config.DefaultMaxBodySize, "Largest accepted status page")
	cmd.Flags().String("output", kannelstatus.OutputPlugin, "Output format (plugin, json); json always exits 0, read the status from the document")
}

func checkConfig(cmd *cobra.Command) (*config.CheckConfig, error) {
	cfg := config.Default()
	cfg.Host, _ = cmd.Flags().GetString("host")
	cfg.Port, _ = cmd.Flags().GetInt("port")
	cfg.Password, _ = cmd.Flags().GetString("password")
	cfg.Pattern, _ = cmd.Flags().GetString("id")
	cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")

	// Password from env if not provided via flag
	if !cmd.Flags().Changed("password") {
		cfg.Password = os.Getenv(config.PasswordEnv)
	}

	maxBodySize, _ := cmd.Flags().GetString("max-body-size")
	size, err := config.ParseSize(maxBodySize)
	if err != nil {
		return nil, err
	}
	cfg.MaxBodySize = size
	return cfg, nil
}

func runKannelStatus(cmd *cobra.Command, exitCode *int) error {
	format, _ := cmd.Flags().GetString("output")
	if format != kannelstatus.OutputPlugin && format != kannelstatus.OutputJSON {
		return errors.Errorf("unknown output format %q", format)
	}

	cfg, err := checkConfig(cmd)
	if err != nil {
		return err
	}

	result := kannelstatus.Run(cmd.Context(), cfg)
	return outputResult(cmd.OutOrStdout(), format, result, exitCode)
}

func printDescriptions(w io.Writer) error {
	return json.NewEncoder(w).Encode(probes.GetAllDescriptions())
}

// outputResult writes the result. Plugin output carries the status in the
// exit code; JSON output always exits 0 since the status is in the document.
func outputResult(w io.Writer, format string, result *probe.Result, exitCode *int) error {
	if format == kannelstatus.OutputJSON {
		*exitCode = 0
		return json.NewEncoder(w).Encode(result)
	}
	*exitCode = result.Status.ExitCode()
	_, err := fmt.Fprintln(w, probe.NewCheck(result))
	return err
}
