package assistants

// Error types carried in ErrorResponse.Err.Type.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypeServer         = "server_error"
)

// APIErrorObject is the error detail returned by the service for failed requests.
type APIErrorObject struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param"`
	Code    *string `json:"code"`
}

// ErrorResponse wraps APIErrorObject the way the service sends it: {"error": {...}}.
type ErrorResponse struct {
	Err APIErrorObject `json:"error"`
}

// Error returns the error message.
func (e *ErrorResponse) Error() string {
	return e.Err.Message
}
