package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics and /, which are
// plain text).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state,omitempty"`
	Time   string `json:"time"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	State         string `json:"state"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	StoreOpen     bool   `json:"store_open"`
	Jobs          int64  `json:"jobs"`
}
