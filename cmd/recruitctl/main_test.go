package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/iam-recruit/dashboard/internal/recruit"
	"github.com/stretchr/testify/assert"
)

func TestDescribeError(t *testing.T) {
	expired := describeError(fmt.Errorf("jobs: %w", auth.ErrSessionExpired))
	assert.Equal(t, "Sesión expirada\nPor favor, inicia sesión nuevamente. Run \"recruitctl login\".", expired)

	assert.Equal(t, `Not logged in. Run "recruitctl login".`, describeError(auth.ErrUnauthorized))

	apiErr := &auth.APIError{Status: 404, Method: "GET", Path: "/api/jobs/x", Message: "Vacante no encontrada"}
	assert.Equal(t, "Error: Vacante no encontrada", describeError(fmt.Errorf("wrapped: %w", apiErr)))

	assert.Equal(t, "Error: boom", describeError(errors.New("boom")))
}

func TestFormatText(t *testing.T) {
	got := formatText(`
		Hello %s
		  indented
	`, "there")
	assert.Equal(t, "Hello there\n  indented", got)
}

func TestCandidateName(t *testing.T) {
	first, last := "Ana", "Pérez"

	assert.Equal(t, "-", candidateName(nil))
	assert.Equal(t, "ana@example.com", candidateName(&recruit.ApplicationCandidate{Email: "ana@example.com"}))
	assert.Equal(t, "Ana Pérez", candidateName(&recruit.ApplicationCandidate{FirstName: &first, LastName: &last}))
	assert.Equal(t, "Ana -", candidateName(&recruit.ApplicationCandidate{FirstName: &first}))
}

func TestScoreAndOrDash(t *testing.T) {
	v := 87.6
	empty := ""

	assert.Equal(t, "-", score(nil))
	assert.Equal(t, "88", score(&v))
	assert.Equal(t, "-", orDash(nil))
	assert.Equal(t, "-", orDash(&empty))
}
