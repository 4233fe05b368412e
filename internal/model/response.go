package model

// BasicResponse is the JSON envelope of every API answer.
type BasicResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success wraps data with a success flag.
func Success(msg string, data any) BasicResponse {
	return BasicResponse{
		Success: true,
		Message: msg,
		Data:    data,
	}
}

// Error returns a failed BasicResponse.
func Error(msg string) BasicResponse {
	return BasicResponse{
		Success: false,
		Message: msg,
	}
}

// ErrorWithDetail carries a short error label next to the detailed message.
func ErrorWithDetail(label, msg string) BasicResponse {
	return BasicResponse{
		Success: false,
		Error:   label,
		Message: msg,
	}
}
