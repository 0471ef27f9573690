// Package postgres implements a Postgres-backed report store.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/misc"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// Repo persists reports in Postgres with retryable operations.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.ReportStore = (*Repo)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

// New returns a Postgres-backed report store.
func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// Save inserts the report under a fresh UUID and returns that ID.
func (r *Repo) Save(ctx context.Context, rep domain.Report) (string, error) {
	const q = `INSERT INTO reports (id, saved_at, score, body) VALUES ($1, $2, $3, $4)`
	body, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	id := uuid.NewString()
	savedAt := r.now().UTC()
	op := func() error {
		_, err := r.db.ExecContext(ctx, q, id, savedAt, rep.Score, body)
		return err
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// Get loads a report by ID. Unknown or malformed IDs yield domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domain.Report, error) {
	const q = `SELECT body FROM reports WHERE id=$1`
	if _, err := uuid.Parse(id); err != nil {
		return domain.Report{}, domain.ErrNotFound
	}
	var body []byte
	op := func() error {
		body = nil
		return r.db.QueryRowContext(ctx, q, id).Scan(&body)
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, err
	}
	var rep domain.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return domain.Report{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return rep, nil
}

// List returns up to limit reports, newest first. Rows with an undecodable body are skipped.
func (r *Repo) List(ctx context.Context, limit int) ([]domain.StoredReport, error) {
	const q = `SELECT id, saved_at, body FROM reports ORDER BY saved_at DESC LIMIT $1`
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var result []domain.StoredReport
	op := func() error {
		rows, err := r.db.QueryContext(ctx, q, limit)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		out := make([]domain.StoredReport, 0, limit)
		for rows.Next() {
			var (
				it   domain.StoredReport
				body []byte
			)
			if err := rows.Scan(&it.ID, &it.SavedAt, &body); err != nil {
				continue
			}
			if err := json.Unmarshal(body, &it.Report); err != nil {
				continue
			}
			out = append(out, it)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		result = out
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping verifies the database connection using a short-lived context.
func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return domain.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return r.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// IsRetryable reports whether the error should trigger a retry according to Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "40")
}
