package repository

import (
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

const altRequestColumns = `
	id, livestream_id, snapshot_id, created_by, alt_note, status,
	alt_assignee_id, alt_other_assignee, decided_by, created_at, decided_at, version
`

func scanAltRequest(sc scanner) (*domain.AltRequest, error) {
	req := &domain.AltRequest{}
	var (
		altID    sql.NullInt64
		altOther sql.NullString
	)

	dst := []any{
		&req.ID, &req.LivestreamID, &req.SnapshotID, &req.CreatedBy, &req.AltNote, &req.Status,
		&altID, &altOther, &req.DecidedBy, &req.CreatedAt, &req.DecidedAt, &req.Version,
	}
	if err := sc.Scan(dst...); err != nil {
		return nil, err
	}

	req.Alt = altFromColumns(altID, altOther)
	return req, nil
}

// CreateAltRequest 同一班次存在待处理申请时违反 alt_requests_pending_key
func (r *Repository) CreateAltRequest(req *domain.AltRequest) error {
	query := `
		INSERT INTO alt_requests (livestream_id, snapshot_id, created_by, alt_note)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + altRequestColumns

	ctx, cancel := r.queryContext()
	defer cancel()

	created, err := scanAltRequest(r.dbpool.QueryRowContext(ctx, query, req.LivestreamID, req.SnapshotID, req.CreatedBy, req.AltNote))
	if err != nil {
		return err
	}

	*req = *created
	return nil
}

func (r *Repository) GetAltRequestByID(id int64) (*domain.AltRequest, error) {
	query := `SELECT ` + altRequestColumns + ` FROM alt_requests WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanAltRequest(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetLatestAltRequest 返回班次最近一条申请，没有时返回 sql.ErrNoRows
func (r *Repository) GetLatestAltRequest(livestreamID, snapshotID int64) (*domain.AltRequest, error) {
	query := `
		SELECT ` + altRequestColumns + ` FROM alt_requests
		WHERE livestream_id = $1 AND snapshot_id = $2
		ORDER BY id DESC
		LIMIT 1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanAltRequest(r.dbpool.QueryRowContext(ctx, query, livestreamID, snapshotID))
}

// ListAltRequests 按状态和申请人筛选，零值表示不筛选
func (r *Repository) ListAltRequests(status domain.AltRequestStatus, createdBy int64) ([]*domain.AltRequest, error) {
	query := `
		SELECT ` + altRequestColumns + ` FROM alt_requests
		WHERE ($1 = '' OR status = $1) AND ($2 = 0 OR created_by = $2)
		ORDER BY id DESC
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, string(status), createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.AltRequest, 0)
	for rows.Next() {
		req, err := scanAltRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// AcceptAltRequest 同意申请并把替班人写入班次，申请已不是待处理状态时返回 ErrConflict
func (r *Repository) AcceptAltRequest(req *domain.AltRequest, alt domain.AltAssignee, decidedBy int64, channelID int64) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	altID, altOther := altColumns(&alt)
	query := `
		UPDATE alt_requests
		SET status = 'accepted', alt_assignee_id = $1, alt_other_assignee = $2, decided_by = $3, decided_at = NOW(), version = version + 1
		WHERE id = $4 AND status = 'pending' AND version = $5
		RETURNING ` + altRequestColumns
	updated, err := scanAltRequest(tx.QueryRowContext(ctx, query, altID, altOther, decidedBy, req.ID, req.Version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict
		}
		return err
	}

	query = `
		UPDATE snapshots
		SET alt_assignee_id = $1, alt_other_assignee = $2, alt_note = $3, version = version + 1
		WHERE id = $4
	`
	if _, err := tx.ExecContext(ctx, query, altID, altOther, req.AltNote, req.SnapshotID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	*req = *updated
	r.InvalidateWeeks(channelID)
	return nil
}

func (r *Repository) RejectAltRequest(req *domain.AltRequest, decidedBy int64) error {
	query := `
		UPDATE alt_requests
		SET status = 'rejected', decided_by = $1, decided_at = NOW(), version = version + 1
		WHERE id = $2 AND status = 'pending' AND version = $3
		RETURNING ` + altRequestColumns

	ctx, cancel := r.queryContext()
	defer cancel()

	updated, err := scanAltRequest(r.dbpool.QueryRowContext(ctx, query, decidedBy, req.ID, req.Version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict
		}
		return err
	}

	*req = *updated
	return nil
}

func (r *Repository) DeleteAltRequest(id int64) error {
	query := `DELETE FROM alt_requests WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}
