// Package probes provides the built-in probe registry.
package probes

import (
	"github.com/jandubois/check-kannel/internal/probe"
	"github.com/jandubois/check-kannel/internal/probes/kannelstatus"
)

// GetAllDescriptions returns descriptions of all built-in probes.
func GetAllDescriptions() []probe.Description {
	return []probe.Description{
		kannelstatus.GetDescription(),
	}
}
