package middlewares

// gin context keys for identity and request metadata.
const (
	CtxRequestID = "auth.requestID"
	CtxEmail     = "auth.email"
	CtxRoles     = "auth.roles"
)
