package repository

import (
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// GetSnapshotByID 返回班次及其所属直播（不含其他班次）
func (r *Repository) GetSnapshotByID(id int64) (*domain.Snapshot, *domain.Livestream, error) {
	query := `
		SELECT ` + snapshotColumns + `, l.fixed, l.version
		FROM snapshots s
		JOIN livestreams l ON l.id = s.livestream_id
		WHERE s.id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	row := r.dbpool.QueryRowContext(ctx, query, id)

	ls := &domain.Livestream{}
	s, err := scanSnapshot(scanFunc(func(dst ...any) error {
		return row.Scan(append(dst, &ls.Fixed, &ls.Version)...)
	}))
	if err != nil {
		return nil, nil, err
	}

	ls.ID = s.LivestreamID
	ls.ChannelID = s.Period.ChannelID
	ls.Date = s.Date
	return s, ls, nil
}

type scanFunc func(dst ...any) error

func (f scanFunc) Scan(dst ...any) error { return f(dst...) }

// CreateSnapshot 在某天新建班次，当天已锁定时返回 ErrWeekLocked
func (r *Repository) CreateSnapshot(s *domain.Snapshot) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ls, err := ensureLivestream(ctx, tx, s.Period.ChannelID, s.Date)
	if err != nil {
		return err
	}
	if ls.Fixed {
		return ErrWeekLocked
	}

	query := `
		INSERT INTO snapshots (livestream_id, period_id, start_time, end_time, role, noon, assignee_id, goal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version
	`
	args := []any{ls.ID, s.Period.PeriodID, s.Period.StartTime.Clock(), s.Period.EndTime.Clock(), s.Period.For, s.Period.Noon, s.Assignee, s.Goal}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.LivestreamID = ls.ID
	s.Date = ls.Date
	r.InvalidateWeeks(s.Period.ChannelID)
	return nil
}

// UpdateSnapshot 更新班次的可变字段，版本号不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateSnapshot(s *domain.Snapshot) error {
	query := `
		UPDATE snapshots
		SET
			start_time = $1,
			end_time = $2,
			assignee_id = $3,
			alt_assignee_id = $4,
			alt_other_assignee = $5,
			alt_note = $6,
			goal = $7,
			income = $8,
			ads_cost = $9,
			click_rate = $10,
			avg_viewing_duration = $11,
			orders = $12,
			comments = $13,
			version = version + 1
		WHERE id = $14 AND version = $15
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	altID, altOther := altColumns(s.Alt)
	args := []any{
		s.Period.StartTime.Clock(), s.Period.EndTime.Clock(), s.Assignee, altID, altOther, s.AltNote, s.Goal,
		s.Income, s.AdsCost, s.ClickRate, s.AvgViewingDuration, s.Orders, s.Comments,
		s.ID, s.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.Version); err != nil {
		return err
	}

	r.InvalidateWeeks(s.Period.ChannelID)
	return nil
}

// UpdateSnapshotAlt 直接设置或清除替班人，并在同一事务中结束该班次待处理的申请：
// 设置替班人视为同意，清除视为拒绝。返回被结束的申请，没有时为 nil
func (r *Repository) UpdateSnapshotAlt(s *domain.Snapshot, decidedBy int64) (*domain.AltRequest, error) {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	altID, altOther := altColumns(s.Alt)
	query := `
		UPDATE snapshots
		SET alt_assignee_id = $1, alt_other_assignee = $2, alt_note = $3, version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, altID, altOther, s.AltNote, s.ID, s.Version).Scan(&s.Version); err != nil {
		return nil, err
	}

	status := domain.AltRequestRejected
	if s.Alt != nil {
		status = domain.AltRequestAccepted
	}
	query = `
		UPDATE alt_requests
		SET status = $1, alt_assignee_id = $2, alt_other_assignee = $3, decided_by = $4, decided_at = NOW(), version = version + 1
		WHERE snapshot_id = $5 AND status = 'pending'
		RETURNING ` + altRequestColumns
	resolved, err := scanAltRequest(tx.QueryRowContext(ctx, query, status, altID, altOther, decidedBy, s.ID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	r.InvalidateWeeks(s.Period.ChannelID)
	return resolved, nil
}

func (r *Repository) DeleteSnapshot(s *domain.Snapshot) error {
	query := `DELETE FROM snapshots WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, s.ID); err != nil {
		return err
	}

	r.InvalidateWeeks(s.Period.ChannelID)
	return nil
}
