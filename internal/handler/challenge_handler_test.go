package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/middleware"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

type challengeServiceMock struct {
	challenge  *dto.ChallengeResponse
	session    *models.Session
	err        error
	lastBegin  dto.BeginChallengeRequest
	lastAnswer dto.AnswerChallengeRequest
}

func (m *challengeServiceMock) Begin(ctx context.Context, req dto.BeginChallengeRequest) (*dto.ChallengeResponse, error) {
	m.lastBegin = req
	return m.challenge, m.err
}

func (m *challengeServiceMock) Answer(ctx context.Context, req dto.AnswerChallengeRequest) (*models.Session, error) {
	m.lastAnswer = req
	return m.session, m.err
}

func TestChallengeHandlerBegin(t *testing.T) {
	mock := &challengeServiceMock{challenge: &dto.ChallengeResponse{
		ChallengeID: "c1", ChallengeType: models.ChallengeBirthDate,
		Options: []string{"01/01/1970", "02/02/1971", "03/03/1972", "04/04/1973"},
	}}
	h := NewChallengeHandler(mock)

	c, w := newTestContext(http.MethodPost, "/auth/challenge", `{"login":"maria"}`)
	h.Begin(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "maria", mock.lastBegin.Login)
	assert.NotContains(t, w.Body.String(), "answer")

	c, w = newTestContext(http.MethodPost, "/auth/challenge", `[]`)
	h.Begin(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChallengeHandlerAnswerOutcomes(t *testing.T) {
	mock := &challengeServiceMock{session: &models.Session{AccessToken: "tok", Member: models.Member{ID: "9"}}}
	h := NewChallengeHandler(mock)

	c, w := newTestContext(http.MethodPost, "/auth/challenge/answer", `{"challenge_id":"c1","option":"20/05/1980"}`)
	h.Answer(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "PARTIAL_DEGRADATION")

	mock.session.Degraded = true
	c, w = newTestContext(http.MethodPost, "/auth/challenge/answer", `{"challenge_id":"c1","option":"20/05/1980"}`)
	h.Answer(c)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "PARTIAL_DEGRADATION", env.Meta["warning"])

	mock.err = appErrors.ErrValidationMismatch
	c, w = newTestContext(http.MethodPost, "/auth/challenge/answer", `{"challenge_id":"c1","option":"21/05/1980"}`)
	h.Answer(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_MISMATCH")
}

func TestChallengeHandlerMe(t *testing.T) {
	h := NewChallengeHandler(&challengeServiceMock{})

	c, w := newTestContext(http.MethodGet, "/auth/me", "")
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodGet, "/auth/me", "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{MemberID: "9", Login: "MARIA"})
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"member_id":"9"`)
}
