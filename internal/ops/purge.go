package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	Kind          string // required
	OlderThanDays *int   // optional, only purge items not updated for N days

	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes every item of a kind, or only those not updated
// within OlderThanDays. Pending summaries are kept.
func Purge(ctx context.Context, st *store.Store, input PurgeInput) (*PurgeOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}

	now := time.Now
	if input.Now != nil {
		now = input.Now
	}
	var cutoff int64
	if input.OlderThanDays != nil {
		cutoff = now().Add(-time.Duration(*input.OlderThanDays) * 24 * time.Hour).Unix()
	}

	var ids []string
	for _, it := range st.List(kind, store.Filter{}) {
		if it.Pending {
			continue
		}
		if input.OlderThanDays != nil && it.UpdatedAt >= cutoff {
			continue
		}
		ids = append(ids, it.ID)
	}

	count := 0
	if len(ids) > 0 {
		if count, err = st.DeleteMany(ctx, ids); err != nil {
			return nil, err
		}
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, kind, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, kind item.Kind, olderThanDays *int) string {
	if count == 0 {
		return fmt.Sprintf("No %s items to purge", kind)
	}
	msg := fmt.Sprintf("Permanently deleted %d %s %s", count, kind, plural(count, "item"))
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (not updated for %d days)", *olderThanDays)
	}
	return msg
}
