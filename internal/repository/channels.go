package repository

import (
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func (r *Repository) GetAllChannels() ([]*domain.Channel, error) {
	query := `SELECT id, name, created_at FROM channels ORDER BY id`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := make([]*domain.Channel, 0)
	for rows.Next() {
		c := &domain.Channel{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return channels, nil
}

func (r *Repository) CreateChannel(c *domain.Channel) error {
	query := `INSERT INTO channels (name) VALUES ($1) RETURNING id, created_at`

	ctx, cancel := r.queryContext()
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, c.Name).Scan(&c.ID, &c.CreatedAt)
}
