package altrequest

import "github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"

// Candidates 筛选可作为替班人的员工：在职、具有班次对应岗位、且不是原负责人
func Candidates(employees []*domain.User, snap *domain.Snapshot) []*domain.User {
	out := make([]*domain.User, 0, len(employees))
	for _, e := range employees {
		if !e.IsActive || !e.HasRole(snap.Period.For) {
			continue
		}
		if snap.Assignee != nil && *snap.Assignee == e.ID {
			continue
		}
		out = append(out, e)
	}
	return out
}
