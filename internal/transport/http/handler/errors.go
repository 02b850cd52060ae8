package handler

const (
	errInternalServer = "Internal server error"
	errInvalidSig     = "Invalid signature"
	errRefreshFailed  = "Failed to refresh notifications"
	errStoreDown      = "Spawn sheet is unavailable"
	errTestFailed     = "Failed to send test notification"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}
