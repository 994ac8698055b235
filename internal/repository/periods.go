package repository

import (
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

const periodColumns = `id, channel_id, start_time, end_time, role, noon, created_at, version`

func scanPeriod(s scanner) (*domain.Period, error) {
	p := &domain.Period{}
	var start, end string

	dst := []any{&p.ID, &p.ChannelID, &start, &end, &p.For, &p.Noon, &p.CreatedAt, &p.Version}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	var err error
	if p.StartTime, err = domain.ParseClock(start); err != nil {
		return nil, err
	}
	if p.EndTime, err = domain.ParseClock(end); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPeriods 返回时段模板，channelID 为 0 时返回所有频道的模板
func (r *Repository) GetPeriods(channelID int64) ([]*domain.Period, error) {
	query := `
		SELECT ` + periodColumns + ` FROM periods
		WHERE $1 = 0 OR channel_id = $1
		ORDER BY channel_id, start_time
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := make([]*domain.Period, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return periods, nil
}

func (r *Repository) GetPeriodByID(id int64) (*domain.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanPeriod(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) CreatePeriod(p *domain.Period) error {
	query := `
		INSERT INTO periods (channel_id, start_time, end_time, role, noon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{p.ChannelID, p.StartTime.Clock(), p.EndTime.Clock(), p.For, p.Noon}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.Version)
}
