package ports

import (
	"context"

	"adinsight/domain/summary"
)

// SummaryReader provides read-only access to one Data Agent summary.
type SummaryReader interface {
	ReadSummary(ctx context.Context) (*summary.PerformanceSummary, error)
}
