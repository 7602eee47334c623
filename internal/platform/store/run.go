package store

import "context"

// RunInCampaign wraps ctx with the campaign label and calls fn inside the
// provided TxRunner
func RunInCampaign(ctx context.Context, tx TxRunner, campaign string, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithCampaign(ctx, campaign)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
