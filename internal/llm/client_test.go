package llm

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
)

func TestTruncateContext_UnderBudgetUntouched(t *testing.T) {
	s := strings.Repeat("a", 100)
	assert.Equal(t, s, TruncateContext(s, 100))
	assert.Equal(t, s, TruncateContext(s, 0))
}

func TestTruncateContext_OverBudget(t *testing.T) {
	s := strings.Repeat("a", 500)
	out := TruncateContext(s, 200)

	assert.True(t, strings.HasSuffix(out, TruncationMarker))
	assert.LessOrEqual(t, len(out), 200+len(TruncationMarker))
	assert.Equal(t, strings.Repeat("a", 200)+TruncationMarker, out)
}

func TestSpokenError_Auth(t *testing.T) {
	err := &openai.Error{StatusCode: http.StatusUnauthorized}
	assert.Contains(t, SpokenError(err), "authentication")
}

func TestSpokenError_RateLimit(t *testing.T) {
	err := &openai.Error{StatusCode: http.StatusTooManyRequests}
	assert.Contains(t, SpokenError(err), "busy")
}

func TestSpokenError_Quota(t *testing.T) {
	assert.Contains(t, SpokenError(errors.New("insufficient quota")), "limit")
}

func TestSpokenError_Generic(t *testing.T) {
	assert.Contains(t, SpokenError(errors.New("boom")), "error occurred")
}
