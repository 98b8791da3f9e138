// Package kannelstatus provides the probe that checks the SMSC connections
// of a Kannel gateway.
package kannelstatus

import (
	"context"
	"log/slog"

	"github.com/jandubois/check-kannel/internal/config"
	"github.com/jandubois/check-kannel/internal/kannel"
	"github.com/jandubois/check-kannel/internal/probe"
)

// Name is the probe subcommand name.
const Name = "kannel-status"

// Output formats. JSON output always exits 0; the status is in the document.
const (
	OutputPlugin = "plugin"
	OutputJSON   = "json"
)

// GetDescription returns the probe description.
func GetDescription() probe.Description {
	return probe.Description{
		Name:        "kannel-status",
		Description: "Check that the SMSC connections of a Kannel gateway are online",
		Version:     "1.0.0",
		Subcommand:  Name,
		Arguments: probe.Arguments{
			Required: map[string]probe.ArgumentSpec{},
			Optional: map[string]probe.ArgumentSpec{
				"host": {
					Type:        "string",
					Description: "Gateway hostname",
					Default:     config.DefaultHost,
				},
				"port": {
					Type:        "number",
					Description: "Gateway admin port",
					Default:     float64(config.DefaultPort),
				},
				"password": {
					Type:        "string",
					Description: "Status page password",
				},
				"id": {
					Type:        "string",
					Description: "Regular expression an SMSC id must match to be checked",
				},
				"timeout": {
					Type:        "string",
					Description: "Request timeout",
					Default:     config.DefaultTimeout.String(),
				},
				"output": {
					Type:        "string",
					Description: "Output format",
					Default:     OutputPlugin,
					Enum:        []string{OutputPlugin, OutputJSON},
				},
				"max-body-size": {
					Type:        "string",
					Description: "Largest accepted status page",
					Default:     config.DefaultMaxBodySize,
				},
			},
		},
	}
}

// Run executes the probe with the given configuration. Configuration errors
// are UNKNOWN; transport failures and unhealthy gateways are CRITICAL.
func Run(ctx context.Context, cfg *config.CheckConfig) *probe.Result {
	if err := cfg.Validate(); err != nil {
		return &probe.Result{
			Status:  probe.StatusUnknown,
			Message: err.Error(),
		}
	}
	filter, err := kannel.CompilePattern(cfg.Pattern)
	if err != nil {
		return &probe.Result{
			Status:  probe.StatusUnknown,
			Message: err.Error(),
		}
	}

	data := map[string]any{
		"host": cfg.Host,
		"port": cfg.Port,
	}
	if cfg.Pattern != "" {
		data["id_pattern"] = cfg.Pattern
	}

	slog.Debug("fetching status page", "url", cfg.RedactedURL(), "timeout", cfg.Timeout)
	client := kannel.NewClient(cfg.Timeout, cfg.MaxBodySize)
	resp, err := client.Fetch(ctx, cfg.StatusURL())
	if err != nil {
		slog.Debug("status page request failed", "error", err)
		return &probe.Result{
			Status:  probe.StatusCritical,
			Message: err.Error(),
			Data:    data,
		}
	}

	verdict := kannel.EvaluateWith(resp.Body, filter)
	if len(verdict.Duplicates) > 0 {
		slog.Warn("duplicate SMSC ids, last status wins", "ids", verdict.Duplicates)
	}

	smscs := make(map[string]any, len(verdict.SMSCs))
	for _, s := range verdict.SMSCs {
		smscs[s.ID] = s.Status
	}
	data["http_status"] = resp.StatusCode
	data["smscs"] = smscs
	if len(verdict.Offline) > 0 {
		data["offline"] = verdict.Offline
	}
	if len(verdict.Duplicates) > 0 {
		data["duplicates"] = verdict.Duplicates
	}

	return &probe.Result{
		Status:  verdict.Status,
		Message: verdict.Message,
		Metrics: map[string]any{
			"total":          verdict.Total(),
			"online":         verdict.Total() - len(verdict.Offline),
			"offline":        len(verdict.Offline),
			"duration_ms":    resp.Duration.Milliseconds(),
			"response_bytes": len(resp.Body),
		},
		Data: data,
	}
}
