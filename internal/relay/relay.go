package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MAR2807/ai-chatbot-v3/core/logx"
	"github.com/MAR2807/ai-chatbot-v3/core/secret"
	"github.com/MAR2807/ai-chatbot-v3/internal/bedrock"
	"github.com/MAR2807/ai-chatbot-v3/internal/metrics"
)

// MaxBodyBytes bounds the size of an invoke request body.
const MaxBodyBytes = 1 << 20

// Fixed error strings for credential failures.
const (
	msgNoCredentials      = "No credentials available"
	msgPartialCredentials = "Partial credentials available"
)

// Model generates a reply for a single prompt. *bedrock.Client implements it.
type Model interface {
	Invoke(ctx context.Context, prompt string) (bedrock.ResponseBody, error)
}

// Handler serves the invoke endpoint. It is immutable after New and safe for
// concurrent use.
type Handler struct {
	model   Model
	secrets []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithRedactedSecrets masks the given values wherever they would appear in
// error details returned to callers or written to the log.
func WithRedactedSecrets(secrets ...string) Option {
	return func(h *Handler) { h.secrets = append(h.secrets, secrets...) }
}

// New returns a Handler that sends prompts to model.
func New(model Model, opts ...Option) *Handler {
	h := &Handler{model: model}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Handle answers one request. It never panics and always returns a JSON body:
// the generated text on success, or {"error": ...} with a status matching the
// failure class.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	switch req.Method {
	case http.MethodGet:
		return jsonResponse(http.StatusOK, map[string]string{"message": DescribeMessage})
	case http.MethodPost:
		return h.invoke(ctx, req)
	default:
		resp := errorResponse(http.StatusMethodNotAllowed, "method not allowed")
		resp.Headers["Allow"] = "GET, POST"
		return resp
	}
}

func (h *Handler) invoke(ctx context.Context, req Request) (resp Response) {
	reqID := req.RequestID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := logx.Log.With().Str("request_id", reqID).Logger()

	start := time.Now()
	outcome := metrics.OutcomeUnexpected
	metrics.InvocationStart()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			outcome = metrics.OutcomeUnexpected
			resp = h.fail(log, http.StatusInternalServerError, err, outcome)
		}
		metrics.InvocationEnd(outcome, time.Since(start))
	}()

	prompt, err := decodePrompt(req.Body)
	if err != nil {
		outcome = metrics.OutcomeClientError
		log.Warn().Err(err).Msg("rejected invoke request")
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	rb, err := h.model.Invoke(ctx, prompt)
	var text string
	if err == nil {
		text, err = rb.Text()
		if err != nil {
			err = &bedrock.UpstreamError{Err: fmt.Errorf("model %s: %w", bedrock.ModelID, err)}
		}
	}
	if err != nil {
		var status int
		status, outcome = classify(err)
		if outcome == metrics.OutcomeUpstream {
			metrics.RecordUpstreamError(bedrock.ErrorCode(err))
		}
		resp = h.fail(log, status, err, outcome)
		if outcome == metrics.OutcomeAuthError {
			msg := msgNoCredentials
			if errors.Is(err, bedrock.ErrPartialCredentials) {
				msg = msgPartialCredentials
			}
			resp = errorResponse(status, msg)
		}
		return resp
	}

	outcome = metrics.OutcomeSuccess
	metrics.RecordOutputTokens(rb.Usage.OutputTokens)
	log.Info().
		Int("prompt_chars", len(prompt)).
		Int("output_tokens", rb.Usage.OutputTokens).
		Str("stop_reason", rb.StopReason).
		Dur("duration", time.Since(start)).
		Msg("invoke complete")
	return jsonResponse(http.StatusOK, InvokeResponse{Response: text})
}

// classify maps an invocation error to its HTTP status and metrics outcome.
func classify(err error) (int, string) {
	var ue *bedrock.UpstreamError
	switch {
	case bedrock.IsCredentialsError(err):
		return http.StatusUnauthorized, metrics.OutcomeAuthError
	case errors.As(err, &ue):
		return http.StatusInternalServerError, metrics.OutcomeUpstream
	default:
		return http.StatusInternalServerError, metrics.OutcomeUnexpected
	}
}

func (h *Handler) fail(log zerolog.Logger, status int, err error, outcome string) Response {
	msg := secret.Redact(err.Error(), h.secrets...)
	ev := log.Error().Str("error", msg).Str("class", outcome).Int("status", status)
	if code := bedrock.ErrorCode(err); code != "" {
		ev = ev.Str("code", code)
	}
	ev.Msg("invoke failed")
	return errorResponse(status, msg)
}

// ServeHTTP adapts Handle to net/http.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: r.Method, RequestID: chiMiddleware.GetReqID(r.Context())}
	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			writeResponse(w, errorResponse(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err)))
			return
		}
		req.Body = body
	}
	writeResponse(w, h.Handle(r.Context(), req))
}

func writeResponse(w http.ResponseWriter, resp Response) {
	if err := resp.Write(w); err != nil {
		logx.Log.Error().Err(err).Msg("write invoke response")
	}
}
