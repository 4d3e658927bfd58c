package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/models"
)

func TestIntegrityWebhookRejectsMalformedPayloads(t *testing.T) {
	ta := newTestApp(t, stubJudgeClient{}, stubPenaltyClient{})

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{"submission_id":`},
		{"missing verdict", `{"submission_id":"sub-1","user_id":42,"problem_id":10}`},
		{"unknown verdict", `{"submission_id":"sub-1","user_id":42,"problem_id":10,"verdict":"Guilty"}`},
		{"empty submission id", `{"submission_id":"","user_id":42,"problem_id":10,"verdict":"Clean"}`},
		{"similarity out of range", `{"submission_id":"sub-1","user_id":42,"contest_id":1,"problem_id":10,"verdict":"Clean","max_similarity":250}`},
		{"no contest reference", `{"submission_id":"sub-1","user_id":42,"problem_id":10,"verdict":"Clean"}`},
		{"zero contest id", `{"submission_id":"sub-1","user_id":42,"contest_id":0,"problem_id":10,"verdict":"Clean"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := ta.do(t, http.MethodPost, "/api/v1/integrity/webhook", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.False(t, env.Success)
		})
	}
}

func TestIntegrityWebhookAcceptsEarlyVerdict(t *testing.T) {
	ta := newTestApp(t, stubJudgeClient{}, stubPenaltyClient{})

	// No result exists yet; the verdict is still accepted and parked.
	body := `{"submission_id":"sub-early","user_id":77,"contest_id":600,"problem_id":10,"max_similarity":64.2,"verdict":"Suspicious"}`
	resp, env := ta.do(t, http.MethodPost, "/api/v1/integrity/webhook", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var orphan models.OrphanIntegrityResult
	require.NoError(t, ta.db.Where("submission_id = ?", "sub-early").First(&orphan).Error)
	require.Equal(t, uint(600), orphan.ContestID)
	require.Equal(t, uint(77), orphan.UserID)
	require.Equal(t, models.IntegrityVerdictSuspicious, orphan.Verdict)
	require.NotEmpty(t, orphan.Payload)
}

func TestIntegrityWebhookAcceptsAssessmentIDAlias(t *testing.T) {
	ta := newTestApp(t, stubJudgeClient{}, stubPenaltyClient{})

	body := `{"submission_id":"sub-alias","user_id":78,"assessment_id":601,"problem_id":10,"verdict":"Clean"}`
	resp, _ := ta.do(t, http.MethodPost, "/api/v1/integrity/webhook", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orphan models.OrphanIntegrityResult
	require.NoError(t, ta.db.Where("submission_id = ?", "sub-alias").First(&orphan).Error)
	require.Equal(t, uint(601), orphan.ContestID)
}
