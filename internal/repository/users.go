package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

const userColumns = `
	u.id, u.username, u.password_hash, u.full_name, u.email, u.is_active, u.created_at, u.version,
	COALESCE(string_agg(ur.role, ',' ORDER BY ur.role), '')
`

const userFrom = `
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
`

type scanner interface {
	Scan(dst ...any) error
}

func scanUser(s scanner) (*domain.User, error) {
	user := &domain.User{}
	var roles string

	dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.IsActive, &user.CreatedAt, &user.Version, &roles}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	user.Roles = parseRoles(roles)
	return user, nil
}

func parseRoles(s string) []domain.Role {
	roles := make([]domain.Role, 0)
	for _, role := range strings.Split(s, ",") {
		if role != "" {
			roles = append(roles, domain.Role(role))
		}
	}
	return roles
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `SELECT` + userColumns + userFrom + `WHERE u.id = $1 GROUP BY u.id`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	query := `SELECT` + userColumns + userFrom + `WHERE u.username = $1 GROUP BY u.id`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, username))
}

// UserFilter 是员工目录的查询条件，Query 同时匹配用户名和姓名
type UserFilter struct {
	Query    string
	Role     domain.Role
	Active   *bool
	Page     int
	PageSize int
}

// SearchUsers 分页查询员工，返回当前页和总数
func (r *Repository) SearchUsers(filter UserFilter) ([]*domain.User, int, error) {
	conds := []string{"TRUE"}
	args := []any{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conds = append(conds, fmt.Sprintf("(u.username ILIKE $%d OR u.full_name ILIKE $%d)", len(args), len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM user_roles x WHERE x.user_id = u.id AND x.role = $%d)", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("u.is_active = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	ctx, cancel := r.queryContext()
	defer cancel()

	total := 0
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query := `SELECT` + userColumns + userFrom + where +
		fmt.Sprintf(" GROUP BY u.id ORDER BY u.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetActiveUsersByRole 返回具有指定角色的在职员工
func (r *Repository) GetActiveUsersByRole(roles ...domain.Role) ([]*domain.User, error) {
	active := true
	seen := make(map[int64]struct{})
	users := make([]*domain.User, 0)

	for _, role := range roles {
		page, _, err := r.SearchUsers(UserFilter{Role: role, Active: &active, PageSize: 1000})
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			users = append(users, u)
		}
	}

	return users, nil
}

func (r *Repository) CreateUser(user *domain.User) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO users (username, password_hash, full_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, version
	`

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version); err != nil {
		return err
	}

	if err := insertRoles(ctx, tx, user); err != nil {
		return err
	}

	return tx.Commit()
}

func insertRoles(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	for _, role := range user.Roles {
		query := `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, user.ID, role); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) UpdateUser(user *domain.User) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE users
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			is_active = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING username, created_at, version
	`

	args := []any{user.PasswordHash, user.FullName, user.Email, user.IsActive, user.ID, user.Version}
	dst := []any{&user.Username, &user.CreatedAt, &user.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, user.ID); err != nil {
		return err
	}
	if err := insertRoles(ctx, tx, user); err != nil {
		return err
	}

	return tx.Commit()
}
