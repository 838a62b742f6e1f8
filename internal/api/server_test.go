package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/llm"
)

type stubAnswerer struct {
	answer *llm.Answer
	err    error

	gotQuery  string
	gotMember *int64
}

func (s *stubAnswerer) Answer(_ context.Context, userQuery string, membershipNbr *int64) (*llm.Answer, error) {
	s.gotQuery = userQuery
	s.gotMember = membershipNbr
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	handler := NewServer(":0", &stubAnswerer{}).Handler()

	for _, path := range []string{"/api/health", "/api/ready"} {
		rec := doRequest(t, handler, "GET", path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
}

func TestChat(t *testing.T) {
	member := int64(42)
	stub := &stubAnswerer{answer: &llm.Answer{
		Text:          "Focus on CATEGORY_002.",
		Intent:        llm.IntentMemberNBA,
		MembershipNbr: &member,
	}}
	handler := NewServer(":0", stub).Handler()

	rec := doRequest(t, handler, "POST", "/api/chat",
		`{"user_query":"what is the next best action?","membership_nbr":42}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Focus on CATEGORY_002.", resp.Answer)
	assert.Equal(t, "member_nba", resp.Intent)
	require.NotNil(t, resp.MembershipNbr)
	assert.Equal(t, int64(42), *resp.MembershipNbr)

	assert.Equal(t, "what is the next best action?", stub.gotQuery)
	require.NotNil(t, stub.gotMember)
	assert.Equal(t, int64(42), *stub.gotMember)
}

func TestChatWithoutMember(t *testing.T) {
	stub := &stubAnswerer{answer: &llm.Answer{Text: "hi", Intent: llm.IntentGeneralHelp}}
	handler := NewServer(":0", stub).Handler()

	rec := doRequest(t, handler, "POST", "/api/chat", `{"user_query":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, stub.gotMember)
	assert.NotContains(t, rec.Body.String(), "membership_nbr")
}

func TestChatBadRequests(t *testing.T) {
	handler := NewServer(":0", &stubAnswerer{}).Handler()

	rec := doRequest(t, handler, "POST", "/api/chat", `{"user_query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_query cannot be empty")

	rec = doRequest(t, handler, "POST", "/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, "GET", "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatAnswerError(t *testing.T) {
	stub := &stubAnswerer{err: fmt.Errorf("boom")}
	handler := NewServer(":0", stub).Handler()

	rec := doRequest(t, handler, "POST", "/api/chat", `{"user_query":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "failed to answer question"))
}
