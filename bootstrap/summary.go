package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/wavechat/component"
)

// Summary describes the application once startup finishes.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Render returns the summary: each component's description followed by
// its live health.
func (s *Summary) Render(ctx context.Context, registry *component.Registry) string {
	var b strings.Builder
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(&b, "\n🚀 %s %s started in %.2fs\n\n", s.serviceName, version, s.startupDuration.Seconds())

	if registry == nil {
		b.WriteString("   └── No components registered\n\n")
		return b.String()
	}

	descriptions := registry.Describe()
	if len(descriptions) == 0 {
		b.WriteString("   └── No components registered\n\n")
		return b.String()
	}

	b.WriteString("📦 Components\n")
	for i, d := range descriptions {
		line := d.Name
		if d.Type != "" {
			line += " [" + d.Type + "]"
		}
		if d.Details != "" {
			line += ": " + d.Details
		}
		fmt.Fprintf(&b, "   %s %s\n", treePrefix(i, len(descriptions)), line)
	}

	results := registry.HealthAll(ctx)
	healthy := 0
	b.WriteString("\n🏥 Health Check\n")
	for i, h := range results {
		msg := ""
		if h.Message != "" {
			msg = " - " + h.Message
		}
		if h.Status == component.StatusHealthy {
			healthy++
		}
		fmt.Fprintf(&b, "   %s %s %s: %s%s\n", treePrefix(i, len(results)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
	}
	b.WriteString("\n")
	if healthy == len(results) {
		fmt.Fprintf(&b, "✅ All components healthy (%d/%d)\n\n", healthy, len(results))
	} else {
		fmt.Fprintf(&b, "⚠️  Some components have issues (%d/%d healthy)\n\n", healthy, len(results))
	}
	return b.String()
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
