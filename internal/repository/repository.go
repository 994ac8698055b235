package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/config"
)

// ErrConflict 表示乐观锁版本不匹配或状态已被其他请求修改
var ErrConflict = errors.New("数据已被修改，请刷新后重试")

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	rdb    *redis.Client
}

func NewRepository(cfg *config.Config, dbpool *sql.DB, rdb *redis.Client) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		rdb:    rdb,
	}
}

func (r *Repository) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) txContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}
