package handlers

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/juntao/modelgate/catalog"
	"github.com/juntao/modelgate/config"
	"github.com/juntao/modelgate/errors"
	"github.com/juntao/modelgate/server/agents"
	"github.com/juntao/modelgate/server/metrics"
	"github.com/juntao/modelgate/server/middleware"
	"github.com/juntao/modelgate/server/provider"
	"github.com/juntao/modelgate/server/registry"
	"github.com/juntao/modelgate/server/stream"
)

// imageModelNotice is streamed back verbatim when a chat request names an
// image-generation model, which has no chat completion endpoint upstream.
const imageModelNotice = "你选择的是 Seedream 图像生成模型，它不支持 /api/chat 的对话接口，所以这次请求会失败。\n\n" +
	"如果你想“AI 绘画创作”，需要走单独的“文生图/图生图”接口（不是 chat completion）。目前这个后端只实现了对话流式接口。\n\n" +
	"建议：先换用文字类模型（如 deepseek-v3-* 或 gpt-4o*）来生成绘画提示词；等后端加上图像生成接口后，再接入 Seedream。"

// ModelResolver resolves a public model id into an invocable upstream handle.
// *registry.Registry implements it; tests substitute fakes.
type ModelResolver interface {
	Resolve(modelID string) (registry.Handle, error)
}

// ChatHandler implements the streaming chat pipeline: decode and validate the
// request, resolve model and call parameters, invoke the upstream, and relay
// token deltas as a UI message stream.
type ChatHandler struct {
	resolver ModelResolver
	agents   agents.Store
	logger   *zap.Logger
	metrics  *metrics.Metrics

	timeout            time.Duration
	defaultTemperature float64
	fallbackPrompt     string
}

// NewChatHandler creates a ChatHandler. The metrics argument may be nil.
func NewChatHandler(resolver ModelResolver, store agents.Store, cfg config.ChatConfig, logger *zap.Logger, m *metrics.Metrics) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		resolver:           resolver,
		agents:             store,
		logger:             logger,
		metrics:            m,
		timeout:            cfg.UpstreamTimeout,
		defaultTemperature: cfg.DefaultTemperature,
		fallbackPrompt:     cfg.FallbackSystemPrompt,
	}
}

// contentPart is one element of a UI message's parts array. Non-object parts
// decode without error and simply carry no content.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (p *contentPart) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
		Text string `json:"text"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil
	}
	p.Type = head.Type
	p.Text = head.Text
	p.URL = head.URL
	return nil
}

// chatMessage is one UI message. Client-side ids are accepted and dropped
// before the upstream call.
type chatMessage struct {
	ID    string        `json:"id"`
	Role  string        `json:"role"`
	Parts []contentPart `json:"parts"`
}

// chatRequest is the wire shape of POST /chat. Messages and Temperature stay
// raw so malformed values can be told apart from absent ones: a non-array
// messages field is a validation error, while a non-numeric temperature is
// treated as not provided.
type chatRequest struct {
	Messages     json.RawMessage `json:"messages"`
	AgentID      string          `json:"agentId"`
	ModelID      *string         `json:"modelId"`
	SystemPrompt string          `json:"systemPrompt"`
	Temperature  json.RawMessage `json:"temperature"`
}

// callParams is the fully resolved parameter set for one upstream call.
type callParams struct {
	ModelID      string
	SystemPrompt string
	Temperature  float64
}

// ServeHTTP handles POST /chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.FromContext(r.Context())
	logger := h.logger.With(zap.String("request_id", requestID))

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.NewValidationError(requestID, "Invalid JSON body"))
		return
	}

	messages, gerr := parseMessages(req.Messages, requestID)
	if gerr != nil {
		errors.WriteError(w, gerr)
		return
	}

	// An explicitly empty modelId is rejected; an absent one falls through
	// to the agent or catalog default.
	if req.ModelID != nil && strings.TrimSpace(*req.ModelID) == "" {
		errors.WriteError(w, errors.NewValidationError(requestID, "Invalid modelId"))
		return
	}

	params, gerr := h.resolveParams(&req, requestID)
	if gerr != nil {
		errors.WriteError(w, gerr)
		return
	}
	logger = logger.With(zap.String("model_id", params.ModelID))

	if catalog.IsImageOnly(params.ModelID) {
		logger.Info("image-only model requested, streaming notice")
		h.streamNotice(w, logger)
		return
	}

	handle, err := h.resolver.Resolve(params.ModelID)
	if err != nil {
		errors.LogError(logger, err, requestID)
		writeResolvedError(w, err, requestID)
		return
	}

	upstream := convertMessages(messages)
	if h.metrics != nil {
		if n := h.estimatePromptTokens(params.SystemPrompt, upstream); n > 0 {
			h.metrics.PromptTokens.WithLabelValues(params.ModelID).Observe(float64(n))
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ts, err := handle.Stream(ctx, registry.Call{
		Messages:     upstream,
		SystemPrompt: params.SystemPrompt,
		Temperature:  params.Temperature,
	})
	if err != nil {
		errors.LogError(logger, err, requestID)
		writeResolvedError(w, err, requestID)
		return
	}
	defer ts.Close()

	h.relay(w, ctx, ts, params.ModelID, logger)
}

// relay copies token deltas from the upstream stream onto the response as UI
// message stream events. Errors after the first byte become in-stream error
// events; the HTTP status is already committed at that point.
func (h *ChatHandler) relay(w http.ResponseWriter, ctx context.Context, ts provider.TokenStream, modelID string, logger *zap.Logger) {
	sw, err := stream.NewWriter(w)
	if err != nil {
		errors.WriteError(w, errors.NewInternalError("", err))
		return
	}
	sw.WriteHeaders()

	messageID := uuid.NewString()
	textID := uuid.NewString()
	sw.Start(messageID)
	sw.TextStart(textID)

	deltas := 0
	for {
		delta, err := ts.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			msg := err.Error()
			if ctx.Err() == context.DeadlineExceeded {
				msg = "Upstream call timed out"
			}
			logger.Warn("upstream stream failed mid-flight",
				zap.Int("deltas", deltas), zap.Error(err))
			sw.Error(msg)
			sw.Done()
			return
		}
		if delta == "" {
			continue
		}
		deltas++
		if h.metrics != nil {
			h.metrics.StreamDeltas.WithLabelValues(modelID).Inc()
		}
		if err := sw.TextDelta(textID, delta); err != nil {
			// Client went away; stop relaying.
			logger.Debug("client disconnected during stream", zap.Int("deltas", deltas))
			return
		}
	}

	sw.TextEnd(textID)
	sw.Finish()
	sw.Done()
	logger.Info("chat stream completed", zap.Int("deltas", deltas))
}

// streamNotice emits the image-model explanation as a complete, well-formed
// message stream so UI clients render it like any assistant reply.
func (h *ChatHandler) streamNotice(w http.ResponseWriter, logger *zap.Logger) {
	sw, err := stream.NewWriter(w)
	if err != nil {
		errors.WriteError(w, errors.NewInternalError("", err))
		return
	}
	sw.WriteHeaders()

	id := uuid.NewString()
	sw.Start(uuid.NewString())
	sw.TextStart(id)
	sw.TextDelta(id, imageModelNotice)
	sw.TextEnd(id)
	sw.Finish()
	if err := sw.Done(); err != nil {
		logger.Debug("client disconnected during notice", zap.Error(err))
	}
}

// parseMessages validates that messages is a non-empty JSON array of UI
// messages. Anything else is an invalid-messages error.
func parseMessages(raw json.RawMessage, requestID string) ([]chatMessage, *errors.GateError) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || !strings.HasPrefix(trimmed, "[") {
		return nil, errors.NewValidationError(requestID, "Invalid messages")
	}
	var messages []chatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, errors.NewValidationError(requestID, "Invalid messages")
	}
	if len(messages) == 0 {
		return nil, errors.NewValidationError(requestID, "Invalid messages")
	}
	return messages, nil
}

// resolveParams applies the parameter precedence: an agent preset wins
// outright; otherwise the request's own fields are filled in from the
// catalog entry's default persona, then from configured fallbacks.
func (h *ChatHandler) resolveParams(req *chatRequest, requestID string) (callParams, *errors.GateError) {
	if agentID := strings.TrimSpace(req.AgentID); agentID != "" {
		preset, ok := h.agents.GetByID(agentID)
		if !ok {
			return callParams{}, errors.NewValidationError(requestID, "unknown agentId: "+agentID)
		}
		return callParams{
			ModelID:      preset.ModelID,
			SystemPrompt: preset.SystemPrompt,
			Temperature:  clampTemperature(preset.Temperature),
		}, nil
	}

	modelID := catalog.DefaultModelID
	if req.ModelID != nil {
		modelID = strings.TrimSpace(*req.ModelID)
	}
	if modelID == "" {
		return callParams{}, errors.NewValidationError(requestID, "Missing modelId")
	}

	entry, known := catalog.ByModelID(modelID)

	prompt := strings.TrimSpace(req.SystemPrompt)
	if prompt == "" && known {
		prompt = entry.DefaultAgent.SystemPrompt
	}
	if prompt == "" {
		prompt = h.fallbackPrompt
	}

	temperature := h.defaultTemperature
	if known {
		temperature = entry.DefaultAgent.Temperature
	}
	if t := parseTemperature(req.Temperature); t != nil {
		temperature = *t
	}

	return callParams{
		ModelID:      modelID,
		SystemPrompt: prompt,
		Temperature:  clampTemperature(temperature),
	}, nil
}

// parseTemperature reads an optional numeric temperature. Absent, null, or
// non-numeric values all mean "not provided".
func parseTemperature(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func clampTemperature(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
}

// convertMessages strips client-side ids and converts each message into the
// upstream call format, preserving order.
func convertMessages(messages []chatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, convertMessage(m))
	}
	return out
}

// convertMessage flattens a text-only message into plain string content. A
// message carrying file or image parts becomes multi-part content instead,
// so attachment URLs reach vision-capable models rather than being dropped.
// Parts with neither text nor a URL contribute nothing.
func convertMessage(m chatMessage) openai.ChatCompletionMessage {
	hasMedia := false
	for _, p := range m.Parts {
		if p.Type != "text" && p.URL != "" {
			hasMedia = true
			break
		}
	}

	if !hasMedia {
		var b strings.Builder
		for _, p := range m.Parts {
			if p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		return openai.ChatCompletionMessage{Role: m.Role, Content: b.String()}
	}

	parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch {
		case p.Type == "text":
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		case p.URL != "":
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: p.URL},
			})
		}
	}
	return openai.ChatCompletionMessage{Role: m.Role, MultiContent: parts}
}

// writeResolvedError maps resolution and upstream-call failures onto the
// uniform error envelope, preserving the status code a GateError carries.
func writeResolvedError(w http.ResponseWriter, err error, requestID string) {
	var gerr *errors.GateError
	if errors.As(err, &gerr) {
		if gerr.RequestID == "" {
			gerr.RequestID = requestID
		}
		errors.WriteError(w, gerr)
		return
	}
	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	errors.WriteError(w, errors.NewProviderError(requestID, msg, err))
}
