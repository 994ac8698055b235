package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleHost      Role = "host"
	RoleAssistant Role = "assistant"
	RoleLeader    Role = "leader"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleAssistant, RoleLeader, RoleAdmin:
		return true
	}
	return false
}

// User 即员工，Roles 同时表示可担任的岗位（host/assistant）和管理权限（leader/admin）
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Roles        []Role    `json:"roles"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// Actor 是当前操作者，来自身份服务
type Actor struct {
	ID    int64  `json:"id"`
	Roles []Role `json:"roles"`
}

func (a Actor) HasRole(role Role) bool {
	return slices.Contains(a.Roles, role)
}

// IsManager 表示 admin 或 leader，可以执行管理类操作
func (a Actor) IsManager() bool {
	return a.HasRole(RoleAdmin) || a.HasRole(RoleLeader)
}

func (a Actor) Is(userID *int64) bool {
	return userID != nil && *userID == a.ID
}

// Identity 提供当前会话的操作者
type Identity interface {
	CurrentActor() Actor
}

type StaticIdentity Actor

func (s StaticIdentity) CurrentActor() Actor {
	return Actor(s)
}
