package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DescribeMessage is returned by GET /api/invoke.
const DescribeMessage = "This endpoint is used for invoking the model via POST requests."

// ErrPromptRequired is returned for a missing or empty newmessage.
var ErrPromptRequired = errors.New("newmessage is required")

// InvokeRequest is the body of POST /api/invoke.
type InvokeRequest struct {
	NewMessage string `json:"newmessage"`
}

// InvokeResponse is the success body of POST /api/invoke.
type InvokeResponse struct {
	Response string `json:"response"`
}

// Request is the transport-independent form of a call to the invoke endpoint.
type Request struct {
	Method    string
	Body      []byte
	RequestID string
}

// Response is what the invoke endpoint answers. Adapters copy it onto their
// transport unchanged.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Write copies r onto w.
func (r Response) Write(w http.ResponseWriter) error {
	for k, v := range r.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// decodePrompt extracts newmessage from body. An empty body or a JSON null is
// treated as a missing field.
func decodePrompt(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", ErrPromptRequired
	}
	var in InvokeRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return "", fmt.Errorf("invalid request body: %w", err)
	}
	if in.NewMessage == "" {
		return "", ErrPromptRequired
	}
	return in.NewMessage, nil
}

func jsonResponse(status int, v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"encode response"}`)
	}
	return Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    b,
	}
}

func errorResponse(status int, msg string) Response {
	return jsonResponse(status, map[string]string{"error": msg})
}
