package altrequest

import (
	"context"
	"errors"
	"sync"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/schedule"
)

var (
	ErrNotLocked          = errors.New("该周排班尚未锁定，不能申请替班")
	ErrNoAssignee         = errors.New("班次尚未分配负责人")
	ErrNotAssignee        = errors.New("只有当前负责人可以申请替班")
	ErrAltAlreadySet      = errors.New("该班次已有替班人")
	ErrRequestOutstanding = errors.New("该班次已有待处理的替班申请")
	ErrForbidden          = errors.New("只有管理员或组长可以处理替班申请")
	ErrNotPending         = errors.New("替班申请已处理")
	ErrAltRequired        = errors.New("请选择替班人")
	ErrAltIsAssignee      = errors.New("替班人不能是原负责人")
	ErrUnknownRequest     = errors.New("替班申请不存在")
)

// Visibility 是某个用户在某个班次上能看到的替班相关操作
type Visibility struct {
	CreateRequest bool
	ViewRequest   bool
	ActOnRequest  bool
}

// Workflow 管理每个班次的替班申请：无申请 -> 待处理 -> 已同意/已拒绝。
// 已处理的申请不会重新打开，只有在上一条申请处理完毕后才能再次申请。
type Workflow struct {
	identity domain.Identity
	syncer   *schedule.Syncer

	mu       sync.Mutex
	requests map[int64]*domain.AltRequest
}

func NewWorkflow(identity domain.Identity, syncer *schedule.Syncer) *Workflow {
	return &Workflow{
		identity: identity,
		syncer:   syncer,
		requests: make(map[int64]*domain.AltRequest),
	}
}

// Load 查询班次最近一条替班申请并缓存，没有申请时返回 nil
func (w *Workflow) Load(ctx context.Context, snapshotID int64) (*domain.AltRequest, error) {
	snap, _, ok := w.syncer.Snapshot(snapshotID)
	if !ok {
		return nil, schedule.ErrSnapshotNotFound
	}

	req, err := w.syncer.AltRequestFor(ctx, snap.LivestreamID, snap.ID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if req == nil {
		delete(w.requests, snapshotID)
		return nil, nil
	}
	w.requests[snapshotID] = req
	return req, nil
}

// Request 返回缓存中班次的替班申请
func (w *Workflow) Request(snapshotID int64) *domain.AltRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests[snapshotID]
}

func (w *Workflow) byID(requestID int64) *domain.AltRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.requests {
		if r.ID == requestID {
			return r
		}
	}
	return nil
}

// resolve 优先使用缓存，未缓存的申请向服务端查询
func (w *Workflow) resolve(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	if req := w.byID(requestID); req != nil {
		return req, nil
	}

	req, err := w.syncer.AltRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, w.syncer.Refuse(ErrUnknownRequest)
	}
	w.store(req)
	return req, nil
}

func (w *Workflow) store(req *domain.AltRequest) {
	if req == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests[req.SnapshotID] = req
}

// CanCreate 检查当前用户能否为班次发起替班申请，不满足时返回原因
func (w *Workflow) CanCreate(snapshotID int64) error {
	snap, ls, ok := w.syncer.Snapshot(snapshotID)
	if !ok {
		return schedule.ErrSnapshotNotFound
	}
	return w.canCreate(w.identity.CurrentActor(), snap, ls, w.Request(snapshotID))
}

func (w *Workflow) canCreate(actor domain.Actor, snap *domain.Snapshot, ls *domain.Livestream, req *domain.AltRequest) error {
	switch {
	case !ls.Fixed:
		return ErrNotLocked
	case snap.Assignee == nil:
		return ErrNoAssignee
	case !actor.Is(snap.Assignee):
		return ErrNotAssignee
	case snap.Alt != nil:
		return ErrAltAlreadySet
	case req != nil && !req.Status.Terminal():
		return ErrRequestOutstanding
	}
	return nil
}

// CreateRequest 发起替班申请。发起前先查询服务端现有申请，避免同一班次出现两条待处理申请
func (w *Workflow) CreateRequest(ctx context.Context, snapshotID int64, note string) (*domain.AltRequest, error) {
	if _, err := w.Load(ctx, snapshotID); err != nil {
		return nil, err
	}
	if err := w.CanCreate(snapshotID); err != nil {
		return nil, w.syncer.Refuse(err)
	}

	snap, _, _ := w.syncer.Snapshot(snapshotID)
	req, err := w.syncer.CreateAltRequest(ctx, snap.LivestreamID, snap.ID, note)
	if err != nil {
		return nil, err
	}
	w.store(req)
	return req, nil
}

func (w *Workflow) decidable(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	if !w.identity.CurrentActor().IsManager() {
		return nil, w.syncer.Refuse(ErrForbidden)
	}
	req, err := w.resolve(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.AltRequestPending {
		return nil, w.syncer.Refuse(ErrNotPending)
	}
	return req, nil
}

// Accept 同意申请并指定替班人，替班人不能为空也不能是原负责人
func (w *Workflow) Accept(ctx context.Context, requestID int64, alt domain.AltAssignee) (*domain.AltRequest, error) {
	req, err := w.decidable(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !alt.Valid() {
		return nil, w.syncer.Refuse(ErrAltRequired)
	}
	if snap, _, ok := w.syncer.Snapshot(req.SnapshotID); ok && snap.Assignee != nil && alt.Is(*snap.Assignee) {
		return nil, w.syncer.Refuse(ErrAltIsAssignee)
	}

	accepted, err := w.syncer.AcceptAltRequest(ctx, requestID, alt)
	if err != nil {
		return nil, err
	}
	w.store(accepted)
	return accepted, nil
}

func (w *Workflow) Reject(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	if _, err := w.decidable(ctx, requestID); err != nil {
		return nil, err
	}

	rejected, err := w.syncer.RejectAltRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	w.store(rejected)
	return rejected, nil
}

// Delete 撤回申请：申请人可以撤回自己待处理的申请，管理员和组长可以删除任意申请
func (w *Workflow) Delete(ctx context.Context, requestID int64) error {
	req, err := w.resolve(ctx, requestID)
	if err != nil {
		return err
	}
	actor := w.identity.CurrentActor()
	if !actor.IsManager() && !(actor.ID == req.CreatedBy && req.Status == domain.AltRequestPending) {
		return w.syncer.Refuse(ErrForbidden)
	}

	if err := w.syncer.DeleteAltRequest(ctx, requestID); err != nil {
		return err
	}

	w.mu.Lock()
	delete(w.requests, req.SnapshotID)
	w.mu.Unlock()
	return nil
}

// OverrideAlt 是管理员直接设置或清除替班人的入口，不需要事先有申请。
// 服务端会在同一事务中结束该班次待处理的申请：设置替班人视为同意，清除视为拒绝。
func (w *Workflow) OverrideAlt(ctx context.Context, snapshotID int64, update domain.AltUpdate) error {
	if !w.identity.CurrentActor().IsManager() {
		return w.syncer.Refuse(ErrForbidden)
	}
	if update.Alt != nil {
		if snap, _, ok := w.syncer.Snapshot(snapshotID); ok && snap.Assignee != nil && update.Alt.Is(*snap.Assignee) {
			return w.syncer.Refuse(ErrAltIsAssignee)
		}
	}

	if err := w.syncer.UpdateAlt(ctx, snapshotID, update); err != nil {
		return err
	}
	_, err := w.Load(ctx, snapshotID)
	return err
}

// Visibility 计算当前用户在班次上的替班操作入口
func (w *Workflow) Visibility(snapshotID int64) Visibility {
	snap, ls, ok := w.syncer.Snapshot(snapshotID)
	if !ok {
		return Visibility{}
	}
	actor := w.identity.CurrentActor()
	req := w.Request(snapshotID)

	v := Visibility{
		CreateRequest: w.canCreate(actor, snap, ls, req) == nil,
	}
	if req != nil {
		v.ViewRequest = actor.ID == req.CreatedBy || actor.IsManager()
		v.ActOnRequest = actor.IsManager() && req.Status == domain.AltRequestPending
	}
	return v
}
