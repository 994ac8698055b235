package handler

type ContextKey string

var (
	ActorCtxKey     ContextKey = "actor"
	RequestIDCtxKey ContextKey = "requestID"
	MyInfoCtx       ContextKey = "myInfo"
	UserInfoCtx     ContextKey = "userInfo"
	SnapshotCtx     ContextKey = "snapshot"
	LivestreamCtx   ContextKey = "livestream"
	AltRequestCtx   ContextKey = "altRequest"
)
