package scheduler

import "github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"

func isEligible(user *domain.User, role domain.Role) bool {
	return user.IsActive && user.HasRole(role)
}

// overlaps 判断同一天的两个班次时间是否重叠
func overlaps(a, b *domain.Snapshot) bool {
	if !sameDay(a, b) {
		return false
	}
	return a.StartMinutes() < b.EndMinutes() && b.StartMinutes() < a.EndMinutes()
}

func sameDay(a, b *domain.Snapshot) bool {
	ay, am, ad := a.Date.Date()
	by, bm, bd := b.Date.Date()
	return ay == by && am == bm && ad == bd
}
