package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAlt(t *testing.T) {
	tests := []struct {
		name        string
		altAssignee string
		altOther    string
		wantNil     bool
		wantErr     bool
		check       func(t *testing.T, a *AltAssignee)
	}{
		{name: "空值表示没有替班人", wantNil: true},
		{name: "员工", altAssignee: "42", check: func(t *testing.T, a *AltAssignee) {
			id, ok := a.EmployeeID()
			assert.True(t, ok)
			assert.Equal(t, int64(42), id)
		}},
		{name: "外部人员", altAssignee: AltOtherSentinel, altOther: "  王五 ", check: func(t *testing.T, a *AltAssignee) {
			name, ok := a.ExternalName()
			assert.True(t, ok)
			assert.Equal(t, "王五", name)
		}},
		{name: "外部人员缺少名字", altAssignee: AltOtherSentinel, wantErr: true},
		{name: "非法 ID", altAssignee: "abc", wantErr: true},
		{name: "非正数 ID", altAssignee: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeAlt(tt.altAssignee, tt.altOther)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAltAssignee)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			tt.check(t, a)
		})
	}
}

func TestEncodeAltKeepsOtherNameOnlyForExternal(t *testing.T) {
	emp := EmployeeAlt(7)
	alt, other := EncodeAlt(&emp)
	assert.Equal(t, "7", alt)
	assert.Empty(t, other)

	ext := ExternalAlt("李四")
	alt, other = EncodeAlt(&ext)
	assert.Equal(t, AltOtherSentinel, alt)
	assert.Equal(t, "李四", other)

	alt, other = EncodeAlt(nil)
	assert.Empty(t, alt)
	assert.Empty(t, other)
}

func TestSnapshotHasReport(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	n := func(v int64) *int64 { return &v }

	s := &Snapshot{}
	assert.False(t, s.HasReport())

	s.Income, s.AdsCost, s.ClickRate, s.AvgViewingDuration = f(100), f(20), f(0.3), f(45)
	assert.False(t, s.HasReport(), "缺少订单数时不算已填写")

	s.Orders = n(3)
	assert.True(t, s.HasReport())

	s.Comments = nil
	assert.True(t, s.HasReport(), "评论数不参与判断")
}

func TestSnapshotJSONCarriesAltFields(t *testing.T) {
	alt := ExternalAlt("外援")
	assignee := int64(3)
	s := Snapshot{
		ID:       10,
		Date:     time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		Assignee: &assignee,
		Alt:      &alt,
		AltNote:  "生病",
		Period: PeriodData{
			StartTime: TimeOfDay{Hour: 9},
			EndTime:   TimeOfDay{Hour: 10},
			For:       RoleHost,
		},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, AltOtherSentinel, raw["altAssignee"])
	assert.Equal(t, "外援", raw["altOtherAssignee"])
	assert.Equal(t, false, raw["hasReport"])

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Alt)
	name, ok := decoded.Alt.ExternalName()
	assert.True(t, ok)
	assert.Equal(t, "外援", name)
	assert.Equal(t, s.Period, decoded.Period)
	assert.Equal(t, "生病", decoded.AltNote)
}

func TestWeekRangeDays(t *testing.T) {
	w := WeekRange{
		From: time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	}
	days := w.Days()
	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), days[0])
	assert.True(t, w.Contains(time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
}

func TestParseClock(t *testing.T) {
	tod, err := ParseClock("09:05:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 5}, tod)
	assert.Equal(t, "09:05:00", tod.Clock())

	tod, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 1439, tod.Minutes())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestActorIsManager(t *testing.T) {
	assert.True(t, Actor{Roles: []Role{RoleLeader}}.IsManager())
	assert.True(t, Actor{Roles: []Role{RoleHost, RoleAdmin}}.IsManager())
	assert.False(t, Actor{Roles: []Role{RoleHost, RoleAssistant}}.IsManager())
}

func TestLivestreamRollupSkipsMissingFields(t *testing.T) {
	income, ads := 120.5, 20.0
	orders := int64(3)
	ls := &Livestream{
		TotalOrders: 99,
		Snapshots: []*Snapshot{
			{Report: Report{Income: &income, AdsCost: &ads, Orders: &orders}},
			{Report: Report{Income: &income}},
			{},
		},
	}

	ls.Rollup()
	assert.Equal(t, int64(3), ls.TotalOrders)
	assert.InDelta(t, 241.0, ls.TotalIncome, 1e-9)
	assert.InDelta(t, 20.0, ls.TotalAdsCost, 1e-9)
}
