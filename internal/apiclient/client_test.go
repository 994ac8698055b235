package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, success bool, msg string, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": msg,
		"data":    data,
	}))
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestLoginKeepsCookieForLaterRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			writeEnvelope(t, w, false, "用户名不存在或密码错误", nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
		writeEnvelope(t, w, true, "登录成功", domain.User{ID: 42, Username: body["username"]})
	})
	mux.HandleFunc("GET /my-info", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		if _, err := r.Cookie("token"); err != nil {
			writeEnvelope(t, w, false, "用户未登录", nil)
			return
		}
		writeEnvelope(t, w, true, "获取个人信息成功", domain.User{ID: 42})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.MyInfo(ctx)
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, "用户未登录", err.Error())

	_, err = c.Login(ctx, "zhangsan", "wrong")
	assert.True(t, IsAPIError(err))

	user, err := c.Login(ctx, "zhangsan", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)

	me, err := c.MyInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), me.ID)
}

func TestListLivestreamsSendsDateRange(t *testing.T) {
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livestreams", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-10-12", q.Get("from"))
		assert.Equal(t, "2026-10-18", q.Get("to"))
		assert.Equal(t, "3", q.Get("channelID"))
		writeEnvelope(t, w, true, "获取排班成功", []*domain.Livestream{{
			ID:        1,
			ChannelID: 3,
			Date:      monday,
			Fixed:     true,
			Snapshots: []*domain.Snapshot{{ID: 9, LivestreamID: 1}},
		}})
	})

	c := newTestClient(t, mux)
	livestreams, err := c.ListLivestreams(context.Background(), domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6), ChannelID: 3})
	require.NoError(t, err)
	require.Len(t, livestreams, 1)
	assert.True(t, livestreams[0].Fixed)
	assert.Equal(t, int64(9), livestreams[0].Snapshots[0].ID)
}

func TestGetAltRequestBySnapshotReturnsNilWithoutRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /alt-requests", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("snapshotID") == "9" {
			writeEnvelope(t, w, true, "该班次没有替班申请", nil)
			return
		}
		writeEnvelope(t, w, true, "获取替班申请成功", domain.AltRequest{ID: 5, SnapshotID: 10, Status: domain.AltRequestPending})
	})

	c := newTestClient(t, mux)

	req, err := c.GetAltRequestBySnapshot(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Nil(t, req)

	req, err = c.GetAltRequestBySnapshot(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, domain.AltRequestPending, req.Status)
}

func TestGetAltRequestByID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /alt-requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "5" {
			writeEnvelope(t, w, false, "替班申请不存在", nil)
			return
		}
		writeEnvelope(t, w, true, "获取替班申请成功", domain.AltRequest{ID: 5, SnapshotID: 10, Status: domain.AltRequestPending})
	})

	c := newTestClient(t, mux)

	req, err := c.GetAltRequest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), req.SnapshotID)

	_, err = c.GetAltRequest(context.Background(), 6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "替班申请不存在")
}

func TestAltPayloadUsesTwoFieldEncoding(t *testing.T) {
	var got map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /snapshots/7/alt", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(t, w, true, "替班已更新", nil)
	})
	mux.HandleFunc("POST /alt-requests/3/accept", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(t, w, true, "已同意替班申请", map[string]any{
			"id":          3,
			"status":      "accepted",
			"altAssignee": "43",
		})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	alt := domain.ExternalAlt("外部主播")
	require.NoError(t, c.UpdateAlt(ctx, 7, domain.AltUpdate{Alt: &alt, Note: "临时"}))
	assert.Equal(t, map[string]string{"altAssignee": domain.AltOtherSentinel, "altOtherAssignee": "外部主播", "altNote": "临时"}, got)

	require.NoError(t, c.UpdateAlt(ctx, 7, domain.AltUpdate{}))
	assert.Equal(t, "", got["altAssignee"])

	req, err := c.AcceptAltRequest(ctx, 3, domain.EmployeeAlt(43))
	require.NoError(t, err)
	assert.Equal(t, "43", got["altAssignee"])
	require.NotNil(t, req.Alt)
	assert.True(t, req.Alt.Is(43))
}

func TestServerErrorIsReported(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /snapshots/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeEnvelope(t, w, false, "服务器内部错误", nil)
	})
	mux.HandleFunc("PATCH /snapshots/1/time", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	c := newTestClient(t, mux)

	err := c.DeleteShift(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	err = c.UpdateShiftTime(context.Background(), 1, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}
