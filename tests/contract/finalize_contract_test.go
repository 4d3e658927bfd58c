package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/models"
)

type stubSessionService struct{}

func (stubSessionService) Start(context.Context, uint, uint, dto.StartSessionRequest) (dto.StartSessionResponse, error) {
	return dto.StartSessionResponse{}, nil
}

func (stubSessionService) Finish(context.Context, uint, uint) (models.Session, error) {
	return models.Session{}, nil
}

func (stubSessionService) Timer(context.Context, uint, uint) (dto.TimerResponse, error) {
	return dto.TimerResponse{}, nil
}

func (stubSessionService) Current(context.Context, uint, uint) (models.Session, error) {
	return models.Session{}, nil
}

func (stubSessionService) FinalizeSession(context.Context, models.Contest, uint) (models.Session, error) {
	return models.Session{}, nil
}

type stubFinalizeService struct {
	response dto.SubmitAllResponse
}

func (s stubFinalizeService) SubmitAll(context.Context, uint, uint, string) (dto.SubmitAllResponse, error) {
	return s.response, nil
}

func TestSubmitAllContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "submit_all.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	result := models.FinalResult{
		ContestID:                 1,
		UserID:                    42,
		BaseScore:                 9,
		SuggestedViolationPenalty: 2,
		FinalScore:                9,
		TotalProblems:             2,
		TotalSolved:               1,
		DurationSeconds:           3600,
		ProblemStats: models.ProblemStatsMap{
			"10": {Score: 3, Verdict: "accepted", TestsPassed: 3, TestsTotal: 3, Status: models.ProblemStatusAccepted, SubmissionID: "sub-1"},
			"11": {Verdict: "wrong_answer", TestsPassed: 2, TestsTotal: 5, Status: models.ProblemStatusAttempted, SubmissionID: "sub-2"},
		},
		TimeMetrics: models.TimeMetrics{
			UsedSeconds:      3600,
			AllocatedSeconds: 3600,
			PercentageUsed:   100,
			WasExpired:       true,
		},
		ViolationReport: models.ViolationReport{
			SuggestedScore: 2,
			IsSuspicious:   true,
			Details:        []string{"tab switching detected"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Hour),
	}
	problems := []models.Problem{
		{ID: 10, Title: "Two Sum", Difficulty: models.DifficultyEasy, Position: 1},
		{ID: 11, Title: "Graph Paths", Difficulty: models.DifficultyHard, Position: 2},
	}

	svc := stubFinalizeService{response: dto.NewSubmitAllResponse(result, problems, 3)}
	sessionHandler := handler.NewSessionHandler(stubSessionService{}, svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/contests", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(42))
		return c.Next()
	})
	sessionHandler.Register(group)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contests/1/submit-all", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
