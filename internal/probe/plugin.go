package probe

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/olorin/nagiosplugin"
)

// NewCheck converts a result into a monitoring-plugin check. Numeric metrics
// become perfdata, sorted by name; "_ms" and "_bytes" suffixes select the unit.
func NewCheck(result *Result) *nagiosplugin.Check {
	check := nagiosplugin.NewCheck()
	// A "|" in the message would start the perfdata section early.
	check.AddResult(pluginStatus(result.Status), strings.ReplaceAll(result.Message, "|", "/"))

	for _, name := range slices.Sorted(maps.Keys(result.Metrics)) {
		value, ok := toFloat(result.Metrics[name])
		if !ok {
			continue
		}
		if err := check.AddPerfDatum(name, perfUnit(name), value); err != nil {
			slog.Debug("skipping perfdata", "metric", name, "error", err)
		}
	}
	return check
}

func pluginStatus(s Status) nagiosplugin.Status {
	switch s {
	case StatusOK:
		return nagiosplugin.OK
	case StatusWarning:
		return nagiosplugin.WARNING
	case StatusCritical:
		return nagiosplugin.CRITICAL
	default:
		return nagiosplugin.UNKNOWN
	}
}

func perfUnit(name string) string {
	switch {
	case strings.HasSuffix(name, "_ms"):
		return "ms"
	case strings.HasSuffix(name, "_bytes"):
		return "B"
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
