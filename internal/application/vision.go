package application

import "context"

// Describer turns a JPEG frame into a one-sentence description. Failures are
// *domain.DescribeError values.
type Describer interface {
	Describe(ctx context.Context, frame []byte) (string, error)
}
