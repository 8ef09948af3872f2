package types

import "context"

type ContextKey string

const (
	CtxRequestID          ContextKey = "ctx_request_id"
	CtxUserID             ContextKey = "ctx_user_id"
	CtxUserEmail          ContextKey = "ctx_user_email"
	CtxSubscriptionStatus ContextKey = "ctx_subscription_status"
)

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxUserID).(string); ok {
		return id
	}
	return ""
}

func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(CtxUserEmail).(string); ok {
		return email
	}
	return ""
}
