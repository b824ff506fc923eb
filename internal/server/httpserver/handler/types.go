package handler

import "time"

// MessageResponse is the body of a successful GET /.
type MessageResponse struct {
	SentMessage    string `json:"sentMessage"`
	RemoteResponse string `json:"remoteResponse"`
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Reason string `json:"reason,omitempty"`
}

func newHealthResponse(status string) HealthResponse {
	return HealthResponse{
		Status: status,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
}
