package notifier

import "context"

// Notifier delivers best-effort notices to collateral owners. Callers log
// failures and carry on.
type Notifier interface {
	NotifyLiquidation(ctx context.Context, ownerID, loanID string) error
}
