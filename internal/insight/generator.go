package insight

import (
	"context"

	"github.com/parkcare/care-api/internal/model"
)

// Generator is the external insight generator: a fallible, possibly slow
// black box. It receives the raw check-in series and a human-readable time
// range label and returns the structured insight payload.
type Generator interface {
	Generate(ctx context.Context, checkIns []*model.CheckIn, rangeLabel string) (*model.InsightPayload, error)
}
