/*
accounts.go - Account ledger (cleared / uncleared / balance maintenance)

PURPOSE:
  Maintains per-account cleared, uncleared, and balance in response to
  transaction mutations. Pending amounts live in the uncleared bucket;
  cleared and reconciled amounts live in the cleared bucket.

INVARIANT:
  balance == cleared + uncleared after every committed mutation. Balance
  is always recomputed from the buckets, never adjusted independently.

SEE ALSO:
  - poster.go: The only caller of these functions
*/
package ledger

import "context"

// bucketFor returns a pointer to the account bucket the status routes to.
func bucketFor(a *Account, status TransactionStatus) *Money {
	if status == StatusPending {
		return &a.Uncleared
	}
	return &a.Cleared
}

// accountAdd routes a new transaction amount into the account.
func (e *Engine) accountAdd(ctx context.Context, st Store, a *Account, amount Money, status TransactionStatus) error {
	*bucketFor(a, status) += amount
	a.Balance = a.Cleared + a.Uncleared
	return st.UpdateAccount(ctx, a)
}

// accountRemove backs a deleted transaction amount out of the account.
func (e *Engine) accountRemove(ctx context.Context, st Store, a *Account, amount Money, status TransactionStatus) error {
	*bucketFor(a, status) -= amount
	a.Balance = a.Cleared + a.Uncleared
	return st.UpdateAccount(ctx, a)
}

// accountApplyUpdate moves a transaction's amount between buckets when its
// amount or status changed. No-op when neither did.
func (e *Engine) accountApplyUpdate(ctx context.Context, st Store, a *Account, oldAmount Money, oldStatus TransactionStatus, newAmount Money, newStatus TransactionStatus) error {
	if oldAmount == newAmount && oldStatus == newStatus {
		return nil
	}
	*bucketFor(a, oldStatus) -= oldAmount
	*bucketFor(a, newStatus) += newAmount
	a.Balance = a.Cleared + a.Uncleared
	return st.UpdateAccount(ctx, a)
}
