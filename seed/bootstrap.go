package seed

import (
	"context"
	"fmt"

	"github.com/cyp0633/openinvite/planner"
	"github.com/cyp0633/openinvite/social"
)

// Bootstrap loads data into an empty directory and an empty store. Parts
// that already hold state are left alone. It reports whether any plans were
// seeded.
func Bootstrap(ctx context.Context, store *planner.Store, dir *social.Directory, data Data) (bool, error) {
	if dir != nil && dir.Snapshot().IsEmpty() {
		dir.Restore(data.Social)
	}
	if !store.IsEmpty() {
		return false, nil
	}
	if err := store.Seed(ctx, data.Plans, data.RSVPs); err != nil {
		return false, fmt.Errorf("failed to seed plans: %w", err)
	}
	return true, nil
}
