package handler

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// webhookSchema validates analyzer deliveries at the serialization boundary
// before any processing happens. A contest reference is mandatory (contest_id
// or its assessment_id alias); without one the verdict could never merge.
const webhookSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["submission_id", "user_id", "problem_id", "verdict"],
  "anyOf": [
    {"required": ["contest_id"]},
    {"required": ["assessment_id"]}
  ],
  "properties": {
    "submission_id": {"type": "string", "minLength": 1},
    "user_id": {"type": "integer", "minimum": 1},
    "contest_id": {"type": "integer", "minimum": 1},
    "assessment_id": {"type": "integer", "minimum": 1},
    "problem_id": {"type": "integer", "minimum": 1},
    "max_similarity": {"type": "number", "minimum": 0, "maximum": 100},
    "ai_score": {"type": "number", "minimum": 0, "maximum": 1},
    "verdict": {"type": "string", "enum": ["Clean", "Suspicious", "Plagiarized", "AIGenerated"]},
    "matches": {"type": "array"},
    "report_path": {"type": "string"}
  }
}`

// IntegrityWebhookHandler receives asynchronous analyzer verdicts.
type IntegrityWebhookHandler struct {
	integrity service.IntegrityService
	schema    *jsonschema.Schema
	logger    zerolog.Logger
}

// NewIntegrityWebhookHandler builds the webhook handler.
func NewIntegrityWebhookHandler(integrity service.IntegrityService, logger zerolog.Logger) *IntegrityWebhookHandler {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("webhook.json", strings.NewReader(webhookSchema)); err != nil {
		panic(err)
	}

	return &IntegrityWebhookHandler{
		integrity: integrity,
		schema:    compiler.MustCompile("webhook.json"),
		logger:    logger.With().Str("component", "integrity_webhook_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *IntegrityWebhookHandler) Register(router fiber.Router) {
	router.Post("/webhook", h.receive)
}

// receive accepts any structurally valid delivery, even when no matching
// result exists yet (the verdict is stored and merged later). Only storage
// failures return non-2xx, which the analyzer treats as retryable.
func (h *IntegrityWebhookHandler) receive(c *fiber.Ctx) error {
	body := c.Body()

	var document any
	if err := json.Unmarshal(body, &document); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid json payload")
	}
	if err := h.schema.Validate(document); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "payload failed schema validation")
	}

	var payload dto.IntegrityWebhookRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	raw := make([]byte, len(body))
	copy(raw, body)

	err := h.integrity.Merge(c.Context(), service.IntegrityVerdict{
		SubmissionID: payload.SubmissionID,
		ContestID:    payload.Contest(),
		UserID:       payload.UserID,
		ProblemID:    payload.ProblemID,
		Similarity:   payload.MaxSimilarity,
		AIScore:      payload.AIScore,
		Verdict:      payload.Verdict,
		EvidenceRef:  payload.ReportPath,
		Raw:          raw,
	})
	if err != nil {
		h.logger.Error().Err(err).
			Str("submission_id", payload.SubmissionID).
			Msg("failed to merge integrity verdict")
		return utils.SendError(c, fiber.StatusInternalServerError, "verdict could not be stored")
	}

	return utils.SendSuccess(c, "verdict accepted", nil)
}
