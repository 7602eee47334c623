// Package repo provides ledger implementations for the claim guard.
//
// The Postgres ledger serializes every claim transaction behind one
// store-wide advisory lock, so the existence check and the append always run
// inside a single continuously held critical section. Expected schema:
//
//	CREATE TABLE claims (
//	    id              bigserial primary key,
//	    created_at      timestamptz not null default now(),
//	    email           text not null,
//	    customer_id     text not null default '',
//	    firstname       text not null default '',
//	    lastname        text not null default '',
//	    specialties     text not null,
//	    specialty_count int  not null,
//	    campaign        text not null,
//	    order_id        text not null, -- raw form, text to preserve leading zeros
//	    order_id_norm   text not null,
//	    submission_id   text not null,
//	    order_entity_id text not null default '',
//	    order_amount    text not null default '',
//	    status          text not null default 'CLAIMED',
//	    updated_at      timestamptz not null default now(),
//	    unique (order_id_norm)
//	);
//	CREATE TABLE claims_test (LIKE claims INCLUDING ALL);
//
// The unique index backstops the invariant; under the advisory lock it should
// never fire, and when it does the racing append is reported as a duplicate.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"masterbox/internal/modkit/repokit"
	perr "masterbox/internal/platform/errors"
	"masterbox/internal/platform/logger"
	"masterbox/internal/platform/store"
	"masterbox/internal/services/claims/domain"
)

// advisoryLockKey is the store-wide claim transaction lock. Coarse by
// design: claim volume is low and correctness dominates throughput.
const advisoryLockKey int64 = 7_2025_1031

// PG is the Postgres-backed ledger.
type PG struct {
	db          repokit.TxRunner
	lockTimeout time.Duration
}

// NewPG builds a Postgres ledger over the given transaction runner.
// lockTimeout bounds how long one claim transaction waits for the advisory
// lock before failing with a retryable error; zero means 30s.
func NewPG(db repokit.TxRunner, lockTimeout time.Duration) *PG {
	if db == nil {
		panic("claims.repo: nil TxRunner")
	}
	if lockTimeout <= 0 {
		lockTimeout = 30 * time.Second
	}
	return &PG{db: db, lockTimeout: lockTimeout}
}

const claimColumns = `created_at, email, customer_id, firstname, lastname,
specialties, specialty_count, campaign, order_id, order_id_norm,
submission_id, order_entity_id, order_amount, status, updated_at`

// Find implements domain.Ledger. Pure read, safe outside the lock.
func (p *PG) Find(ctx context.Context, orderIDNorm string) (*domain.ClaimRecord, error) {
	return findIn(ctx, p.db, "claims", orderIDNorm)
}

// Claim implements domain.Ledger. The advisory lock, the existence check, and
// the append share one transaction; releasing between check and append would
// reopen the duplicate window.
func (p *PG) Claim(ctx context.Context, rec domain.ClaimRecord) (*domain.ClaimRecord, bool, error) {
	var (
		existing *domain.ClaimRecord
		claimed  bool
	)
	err := store.RunInCampaign(ctx, p.db, rec.Campaign, func(ctx context.Context, q repokit.Queryer) error {
		// lock_timeout must be inlined; SET LOCAL takes no bind parameters
		if _, err := q.Exec(ctx, fmt.Sprintf("set local lock_timeout = '%dms'", p.lockTimeout.Milliseconds())); err != nil {
			return perr.FromPostgres(err, "claims set lock timeout")
		}
		if _, err := q.Exec(ctx, "select pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
			if perr.IsLockNotAvailable(err) {
				return perr.Wrap(err, perr.ErrorCodeUnavailable, "claims ledger lock timeout")
			}
			return perr.FromPostgres(err, "claims acquire lock")
		}

		found, err := findIn(ctx, q, "claims", rec.OrderIDNorm)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return nil
		}

		if err := appendIn(ctx, q, "claims", rec); err != nil {
			if perr.IsDuplicateKey(err) {
				// raced past the check despite the lock; report as duplicate
				found, ferr := findIn(ctx, q, "claims", rec.OrderIDNorm)
				if ferr != nil {
					logger.C(ctx).Warn().Err(ferr).
						Str("order_id", rec.OrderIDNorm).
						Msg("duplicate re-read failed, reporting with local record")
					found = &domain.ClaimRecord{
						CreatedAt:   time.Now().UTC(),
						Campaign:    rec.Campaign,
						OrderIDRaw:  rec.OrderIDRaw,
						OrderIDNorm: rec.OrderIDNorm,
						Status:      "CLAIMED",
					}
				}
				existing = found
				return nil
			}
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return existing, claimed, nil
}

// AppendTest implements domain.Ledger. Test rows live in their own table so
// production uniqueness and reporting are unaffected.
func (p *PG) AppendTest(ctx context.Context, rec domain.ClaimRecord) error {
	return appendIn(ctx, p.db, "claims_test", rec)
}

func findIn(ctx context.Context, q repokit.Queryer, table, orderIDNorm string) (*domain.ClaimRecord, error) {
	sql := `select created_at, email, customer_id, firstname, lastname,
specialties, campaign, order_id, order_id_norm, submission_id, status
from ` + table + ` where order_id_norm = $1 limit 1`

	rec, err := store.One(ctx, q, scanClaim, sql, orderIDNorm)
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			return nil, nil
		}
		return nil, perr.FromPostgres(err, "claims lookup")
	}
	return &rec, nil
}

func scanClaim(r store.Row) (domain.ClaimRecord, error) {
	var (
		rec         domain.ClaimRecord
		specialties string
	)
	if err := r.Scan(
		&rec.CreatedAt, &rec.Email, &rec.CustomerID, &rec.FirstName, &rec.LastName,
		&specialties, &rec.Campaign, &rec.OrderIDRaw, &rec.OrderIDNorm,
		&rec.SubmissionID, &rec.Status,
	); err != nil {
		return rec, err
	}
	rec.Specialties = splitSpecialties(specialties)
	return rec, nil
}

func appendIn(ctx context.Context, q repokit.Queryer, table string, rec domain.ClaimRecord) error {
	sql := `insert into ` + table + ` (` + claimColumns + `)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	now := rec.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	status := rec.Status
	if status == "" {
		status = "CLAIMED"
	}
	_, err := q.Exec(ctx, sql,
		now, rec.Email, rec.CustomerID, rec.FirstName, rec.LastName,
		domain.JoinSpecialties(rec.Specialties), len(rec.Specialties), rec.Campaign,
		rec.OrderIDRaw, rec.OrderIDNorm, rec.SubmissionID,
		rec.OrderEntityID, rec.OrderAmount, status, now,
	)
	return perr.FromPostgres(err, "claims append")
}

func splitSpecialties(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
