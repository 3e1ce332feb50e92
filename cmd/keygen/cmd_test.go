package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	authUsecase "portal-backend/internal/auth/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintVAPIDKeys(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printVAPIDKeys(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "VAPID_PUBLIC_KEY="))
	assert.True(t, strings.HasPrefix(lines[1], "VAPID_PRIVATE_KEY="))
	assert.Greater(t, len(lines[0]), len("VAPID_PUBLIC_KEY="))
}

func TestPrintServiceToken(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printServiceToken(&out, "s3cret", "calendar", time.Hour))

	subject, err := authUsecase.NewAuthUsecase(nil, "s3cret").VerifyServiceToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "calendar", subject)
}

func TestPrintServiceTokenNeedsSecret(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, printServiceToken(&out, "", "calendar", time.Hour))
	assert.Empty(t, out.String())
}

func TestPrintServiceTokenRejectsZeroTTL(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, printServiceToken(&out, "s3cret", "calendar", 0))
	assert.Empty(t, out.String())
}
