package status

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

const instrumentationName = "github.com/fyrsmithlabs/devflow/internal/status"

// metrics counts classifier outcomes.
type metrics struct {
	phases          metric.Int64Counter
	recommendations metric.Int64Counter
}

func newMetrics(logger *logging.Logger) *metrics {
	meter := otel.Meter(instrumentationName)
	m := &metrics{}
	var err error

	m.phases, err = meter.Int64Counter(
		"devflow.workflow.phase_total",
		metric.WithDescription("Workflow phase classifications by phase"),
		metric.WithUnit("{classification}"),
	)
	if err != nil {
		logger.Warn(context.Background(), "failed to create phase counter", zap.Error(err))
	}

	m.recommendations, err = meter.Int64Counter(
		"devflow.changes.recommendation_total",
		metric.WithDescription("Change classifications by build recommendation"),
		metric.WithUnit("{classification}"),
	)
	if err != nil {
		logger.Warn(context.Background(), "failed to create recommendation counter", zap.Error(err))
	}
	return m
}

func (m *metrics) phase(ctx context.Context, p workflow.Phase) {
	if m.phases != nil {
		m.phases.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", string(p))))
	}
}

func (m *metrics) recommendation(ctx context.Context, r workflow.Recommendation) {
	if m.recommendations != nil {
		m.recommendations.Add(ctx, 1, metric.WithAttributes(attribute.String("recommendation", string(r))))
	}
}
