package schedule

import (
	"context"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// Backend 是排班服务端提供的接口，所有调用都是一次性的，失败不重试
type Backend interface {
	ListLivestreams(ctx context.Context, week domain.WeekRange) ([]*domain.Livestream, error)
	CreateWeekRange(ctx context.Context, week domain.WeekRange) error
	SyncWeek(ctx context.Context, week domain.WeekRange) error
	FixWeek(ctx context.Context, week domain.WeekRange) error

	AddShift(ctx context.Context, draft domain.ShiftDraft) (*domain.Snapshot, error)
	UpdateAssignee(ctx context.Context, snapshotID int64, assignee *int64) error
	UpdateShiftTime(ctx context.Context, snapshotID int64, start, end domain.TimeOfDay) error
	DeleteShift(ctx context.Context, snapshotID int64) error
	UpdateAlt(ctx context.Context, snapshotID int64, update domain.AltUpdate) error
	UpdateReport(ctx context.Context, snapshotID int64, report domain.Report) error

	CreateAltRequest(ctx context.Context, livestreamID, snapshotID int64, note string) (*domain.AltRequest, error)
	// GetAltRequestBySnapshot 在没有申请时返回 nil, nil
	GetAltRequestBySnapshot(ctx context.Context, livestreamID, snapshotID int64) (*domain.AltRequest, error)
	GetAltRequest(ctx context.Context, requestID int64) (*domain.AltRequest, error)
	AcceptAltRequest(ctx context.Context, requestID int64, alt domain.AltAssignee) (*domain.AltRequest, error)
	RejectAltRequest(ctx context.Context, requestID int64) (*domain.AltRequest, error)
	DeleteAltRequest(ctx context.Context, requestID int64) error
}
