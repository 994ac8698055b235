package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

var ErrWeekLocked = errors.New("该周排班已锁定")

const snapshotColumns = `
	s.id, s.livestream_id, l.date, l.channel_id, s.period_id, s.start_time, s.end_time, s.role, s.noon,
	s.assignee_id, s.alt_assignee_id, s.alt_other_assignee, s.alt_note, s.goal,
	s.income, s.ads_cost, s.click_rate, s.avg_viewing_duration, s.orders, s.comments, s.version
`

func scanSnapshot(sc scanner) (*domain.Snapshot, error) {
	s := &domain.Snapshot{}
	var (
		start, end string
		altID      sql.NullInt64
		altOther   sql.NullString
	)

	dst := []any{
		&s.ID, &s.LivestreamID, &s.Date, &s.Period.ChannelID, &s.Period.PeriodID, &start, &end, &s.Period.For, &s.Period.Noon,
		&s.Assignee, &altID, &altOther, &s.AltNote, &s.Goal,
		&s.Income, &s.AdsCost, &s.ClickRate, &s.AvgViewingDuration, &s.Orders, &s.Comments, &s.Version,
	}
	if err := sc.Scan(dst...); err != nil {
		return nil, err
	}

	var err error
	if s.Period.StartTime, err = domain.ParseClock(start); err != nil {
		return nil, err
	}
	if s.Period.EndTime, err = domain.ParseClock(end); err != nil {
		return nil, err
	}
	s.Alt = altFromColumns(altID, altOther)
	return s, nil
}

func altFromColumns(id sql.NullInt64, other sql.NullString) *domain.AltAssignee {
	switch {
	case id.Valid:
		a := domain.EmployeeAlt(id.Int64)
		return &a
	case other.Valid && other.String != "":
		a := domain.ExternalAlt(other.String)
		return &a
	}
	return nil
}

func altColumns(a *domain.AltAssignee) (sql.NullInt64, sql.NullString) {
	if a == nil {
		return sql.NullInt64{}, sql.NullString{}
	}
	if id, ok := a.EmployeeID(); ok {
		return sql.NullInt64{Int64: id, Valid: true}, sql.NullString{}
	}
	name, _ := a.ExternalName()
	return sql.NullInt64{}, sql.NullString{String: name, Valid: true}
}

// GetLivestreams 返回频道在日期范围内的直播及班次，优先读取 redis 缓存
func (r *Repository) GetLivestreams(week domain.WeekRange) ([]*domain.Livestream, error) {
	version, cacheable := r.currentWeekVersion(week.ChannelID)
	if cacheable {
		if cached := r.cachedWeek(week, version); cached != nil {
			return cached, nil
		}
	}

	ctx, cancel := r.queryContext()
	defer cancel()

	from := week.From.Format(domain.DateLayout)
	to := week.To.Format(domain.DateLayout)

	query := `
		SELECT id, channel_id, date, fixed, version
		FROM livestreams
		WHERE channel_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	rows, err := r.dbpool.QueryContext(ctx, query, week.ChannelID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	livestreams := make([]*domain.Livestream, 0)
	byID := make(map[int64]*domain.Livestream)
	for rows.Next() {
		ls := &domain.Livestream{Snapshots: make([]*domain.Snapshot, 0)}
		if err := rows.Scan(&ls.ID, &ls.ChannelID, &ls.Date, &ls.Fixed, &ls.Version); err != nil {
			return nil, err
		}
		livestreams = append(livestreams, ls)
		byID[ls.ID] = ls
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT ` + snapshotColumns + `
		FROM snapshots s
		JOIN livestreams l ON l.id = s.livestream_id
		WHERE l.channel_id = $1 AND l.date BETWEEN $2 AND $3
		ORDER BY l.date, s.start_time, s.id
	`
	snapRows, err := r.dbpool.QueryContext(ctx, query, week.ChannelID, from, to)
	if err != nil {
		return nil, err
	}
	defer snapRows.Close()

	for snapRows.Next() {
		s, err := scanSnapshot(snapRows)
		if err != nil {
			return nil, err
		}
		if ls, ok := byID[s.LivestreamID]; ok {
			ls.Snapshots = append(ls.Snapshots, s)
		}
	}
	if err := snapRows.Err(); err != nil {
		return nil, err
	}

	for _, ls := range livestreams {
		ls.Rollup()
	}

	if cacheable {
		r.cacheWeek(week, version, livestreams)
	}
	return livestreams, nil
}

func (r *Repository) GetLivestreamByID(id int64) (*domain.Livestream, error) {
	query := `SELECT id, channel_id, date, fixed, version FROM livestreams WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	ls := &domain.Livestream{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&ls.ID, &ls.ChannelID, &ls.Date, &ls.Fixed, &ls.Version); err != nil {
		return nil, err
	}
	return ls, nil
}

// ensureLivestream 获取某频道某天的直播，不存在时创建
func ensureLivestream(ctx context.Context, tx *sql.Tx, channelID int64, date time.Time) (*domain.Livestream, error) {
	query := `
		INSERT INTO livestreams (channel_id, date)
		VALUES ($1, $2)
		ON CONFLICT (channel_id, date) DO UPDATE SET channel_id = EXCLUDED.channel_id
		RETURNING id, channel_id, date, fixed, version
	`

	ls := &domain.Livestream{}
	dst := []any{&ls.ID, &ls.ChannelID, &ls.Date, &ls.Fixed, &ls.Version}
	if err := tx.QueryRowContext(ctx, query, channelID, date.Format(domain.DateLayout)).Scan(dst...); err != nil {
		return nil, err
	}
	return ls, nil
}

// HasFixedDay 判断日期范围内是否有已锁定的直播
func (r *Repository) HasFixedDay(week domain.WeekRange) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM livestreams
			WHERE channel_id = $1 AND date BETWEEN $2 AND $3 AND fixed
		)
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	fixed := false
	args := []any{week.ChannelID, week.From.Format(domain.DateLayout), week.To.Format(domain.DateLayout)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&fixed); err != nil {
		return false, err
	}
	return fixed, nil
}

// FillWeekFromPeriods 按时段模板为日期范围内每一天补齐班次，已存在的不会重复创建，锁定的日期跳过。
// 返回新建的班次数量
func (r *Repository) FillWeekFromPeriods(week domain.WeekRange, periods []*domain.Period) (int, error) {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO snapshots (livestream_id, period_id, start_time, end_time, role, noon)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (livestream_id, period_id) WHERE period_id IS NOT NULL DO NOTHING
	`

	created := 0
	for _, day := range week.Days() {
		ls, err := ensureLivestream(ctx, tx, week.ChannelID, day)
		if err != nil {
			return 0, err
		}
		if ls.Fixed {
			continue
		}

		for _, p := range periods {
			if p.ChannelID != week.ChannelID {
				continue
			}
			args := []any{ls.ID, p.ID, p.StartTime.Clock(), p.EndTime.Clock(), p.For, p.Noon}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return 0, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, err
			}
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	r.InvalidateWeeks(week.ChannelID)
	return created, nil
}

// FixWeek 锁定日期范围内的每一天，没有直播的日期也会创建一条锁定的记录
func (r *Repository) FixWeek(week domain.WeekRange) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, day := range week.Days() {
		ls, err := ensureLivestream(ctx, tx, week.ChannelID, day)
		if err != nil {
			return err
		}
		if ls.Fixed {
			continue
		}
		query := `UPDATE livestreams SET fixed = TRUE, version = version + 1 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, ls.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.InvalidateWeeks(week.ChannelID)
	return nil
}
