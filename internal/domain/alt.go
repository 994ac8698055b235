package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// AltOtherSentinel 是线上 altAssignee 字段中表示“外部人员”的取值
const AltOtherSentinel = "other"

var ErrInvalidAltAssignee = errors.New("替班人无效")

type altKind uint8

const (
	altEmployee altKind = iota + 1
	altExternal
)

// AltAssignee 是替班人，要么是某个员工，要么是外部人员（只有名字）
type AltAssignee struct {
	kind       altKind
	employeeID int64
	name       string
}

func EmployeeAlt(id int64) AltAssignee {
	return AltAssignee{kind: altEmployee, employeeID: id}
}

func ExternalAlt(name string) AltAssignee {
	return AltAssignee{kind: altExternal, name: strings.TrimSpace(name)}
}

func (a AltAssignee) EmployeeID() (int64, bool) {
	return a.employeeID, a.kind == altEmployee
}

func (a AltAssignee) ExternalName() (string, bool) {
	return a.name, a.kind == altExternal
}

// Valid 要求员工 ID 为正数或外部人员名字非空
func (a AltAssignee) Valid() bool {
	switch a.kind {
	case altEmployee:
		return a.employeeID > 0
	case altExternal:
		return a.name != ""
	}
	return false
}

// Is 判断替班人是否就是给定员工
func (a AltAssignee) Is(userID int64) bool {
	return a.kind == altEmployee && a.employeeID == userID
}

func (a AltAssignee) String() string {
	switch a.kind {
	case altEmployee:
		return "employee:" + strconv.FormatInt(a.employeeID, 10)
	case altExternal:
		return "external:" + a.name
	}
	return ""
}

// EncodeAlt 转换为线上的两字段编码
func EncodeAlt(a *AltAssignee) (altAssignee string, altOtherAssignee string) {
	if a == nil {
		return "", ""
	}
	switch a.kind {
	case altEmployee:
		return strconv.FormatInt(a.employeeID, 10), ""
	case altExternal:
		return AltOtherSentinel, a.name
	}
	return "", ""
}

// DecodeAlt 解析线上的两字段编码，altAssignee 为空时返回 nil
func DecodeAlt(altAssignee, altOtherAssignee string) (*AltAssignee, error) {
	altAssignee = strings.TrimSpace(altAssignee)
	if altAssignee == "" {
		return nil, nil
	}

	if altAssignee == AltOtherSentinel {
		a := ExternalAlt(altOtherAssignee)
		if !a.Valid() {
			return nil, ErrInvalidAltAssignee
		}
		return &a, nil
	}

	id, err := strconv.ParseInt(altAssignee, 10, 64)
	if err != nil {
		return nil, ErrInvalidAltAssignee
	}
	a := EmployeeAlt(id)
	if !a.Valid() {
		return nil, ErrInvalidAltAssignee
	}
	return &a, nil
}

type AltRequestStatus string

const (
	AltRequestPending  AltRequestStatus = "pending"
	AltRequestAccepted AltRequestStatus = "accepted"
	AltRequestRejected AltRequestStatus = "rejected"
)

func (s AltRequestStatus) Terminal() bool {
	return s == AltRequestAccepted || s == AltRequestRejected
}

// AltRequest 是替班申请
type AltRequest struct {
	ID           int64            `json:"id"`
	LivestreamID int64            `json:"livestreamID"`
	SnapshotID   int64            `json:"snapshotID"`
	CreatedBy    int64            `json:"createdBy"`
	AltNote      string           `json:"altNote"`
	Status       AltRequestStatus `json:"status"`
	Alt          *AltAssignee     `json:"-"`
	DecidedBy    *int64           `json:"decidedBy"`
	CreatedAt    time.Time        `json:"createdAt"`
	DecidedAt    *time.Time       `json:"decidedAt"`
	Version      int32            `json:"-"`
}

type altRequestJSON AltRequest

func (r AltRequest) MarshalJSON() ([]byte, error) {
	altAssignee, altOther := EncodeAlt(r.Alt)
	return json.Marshal(struct {
		altRequestJSON
		AltAssignee      string `json:"altAssignee"`
		AltOtherAssignee string `json:"altOtherAssignee"`
	}{altRequestJSON(r), altAssignee, altOther})
}

func (r *AltRequest) UnmarshalJSON(data []byte) error {
	aux := struct {
		*altRequestJSON
		AltAssignee      string `json:"altAssignee"`
		AltOtherAssignee string `json:"altOtherAssignee"`
	}{altRequestJSON: (*altRequestJSON)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	alt, err := DecodeAlt(aux.AltAssignee, aux.AltOtherAssignee)
	if err != nil {
		return err
	}
	r.Alt = alt
	return nil
}

// AltUpdate 是管理员直接设置或清除替班人的输入，Alt 为 nil 表示清除
type AltUpdate struct {
	Alt  *AltAssignee
	Note string
}
