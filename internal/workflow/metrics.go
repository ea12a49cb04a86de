package workflow

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// initMetrics initializes OpenTelemetry metrics.
func (c *Coordinator) initMetrics() {
	var err error

	c.runCounter, err = c.meter.Int64Counter(
		"autopilot.workflow.runs_total",
		metric.WithDescription("Total number of workflow runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		c.logger.Warn("failed to create run counter", zap.Error(err))
	}

	c.failureCounter, err = c.meter.Int64Counter(
		"autopilot.workflow.failures_total",
		metric.WithDescription("Total number of workflow runs not resolving to success"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		c.logger.Warn("failed to create failure counter", zap.Error(err))
	}
}

func (c *Coordinator) count(ctx context.Context, req Request, report *Report) {
	attrs := metric.WithAttributes(
		attribute.String("kind", string(req.Kind)),
		attribute.String("outcome", string(report.Outcome)),
	)
	if c.runCounter != nil {
		c.runCounter.Add(ctx, 1, attrs)
	}

	failed := report.Outcome != OutcomeAccepted ||
		(report.WorkflowStatus != nil && *report.WorkflowStatus != StatusSuccess)
	if failed && c.failureCounter != nil {
		c.failureCounter.Add(ctx, 1, attrs)
	}
}
