package response

import (
	"encoding/json"
	"net/http"

	"notelink/pkg/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// exposeDetails controls whether internal error causes reach the client.
var exposeDetails bool

// ExposeInternalDetails toggles the development-only "details" field on 500s.
func ExposeInternalDetails(enabled bool) {
	exposeDetails = enabled
}

// JSON writes payload as a success envelope.
func JSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["status"] = StatusSuccess
	write(w, status, body)
}

// Error writes err as an error envelope with the status its kind maps to.
func Error(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	body := map[string]any{
		"status":  StatusError,
		"code":    appErr.Kind,
		"message": appErr.Message,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	if appErr.Kind == KindInternal && exposeDetails && appErr.Err != nil {
		body["details"] = appErr.Err.Error()
	}
	write(w, appErr.Status(), body)
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}
