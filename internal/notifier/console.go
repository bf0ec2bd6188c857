package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/adsentry-team/adsentry/internal/model"
)

// ConsoleNotifier prints alerts to the log (useful for local runs and tests).
type ConsoleNotifier struct{}

// NewConsoleNotifier creates a new console notifier.
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

// Name returns the notifier name.
func (c *ConsoleNotifier) Name() string {
	return "console"
}

// Send prints the alerts to the console.
func (c *ConsoleNotifier) Send(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("═══════════════════════════════════════════════════════════════\n")
	sb.WriteString(fmt.Sprintf("                 ADSENTRY ALERTS (%d)\n", len(alerts)))
	sb.WriteString("═══════════════════════════════════════════════════════════════\n")

	for i := range alerts {
		a := &alerts[i]
		sb.WriteString(fmt.Sprintf("%s [%s/%s] %s\n", severityIcon(a.Severity), a.Type, a.Severity, a.Message))
		sb.WriteString(fmt.Sprintf("    %s: %.2f (threshold %.2f)\n", a.MetricName, a.CurrentValue, a.ThresholdValue))
	}

	sb.WriteString("═══════════════════════════════════════════════════════════════\n")

	log.Print(sb.String())
	return nil
}
