package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// Unadviser releases native handles.
type Unadviser interface {
	Unadvise(ctx context.Context, h native.Handle) error
}

// Sweep releases every outstanding handle in l through nat and marks it
// released. A handle whose Unadvise fails is marked released too, since
// retrying could release a handle the tool has reissued. It returns the
// number of handles swept and the joined Unadvise errors.
func Sweep(ctx context.Context, nat Unadviser, l *Ledger) (int, error) {
	recs, err := l.Outstanding(ctx)
	if err != nil {
		return 0, fmt.Errorf("list outstanding: %w", err)
	}

	var (
		errs  []error
		swept int
	)
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := nat.Unadvise(ctx, rec.Handle); err != nil {
			errs = append(errs, fmt.Errorf("unadvise %s for %s: %w", rec.Handle, rec.SubscriptionID, err))
		}
		if err := l.Released(ctx, rec.SubscriptionID, rec.Handle); err != nil {
			return swept, fmt.Errorf("mark released: %w", err)
		}
		swept++
	}
	return swept, errors.Join(errs...)
}
