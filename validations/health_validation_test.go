package validations

import (
	"context"
	"testing"

	domainHealth "github.com/nexlify/healthwatch/domains/health"
	pkgError "github.com/nexlify/healthwatch/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWorkspaceID(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateWorkspaceID(ctx, "ws-1"))

	err := ValidateWorkspaceID(ctx, "")
	require.Error(t, err)
	_, isValidation := err.(pkgError.ValidationError)
	assert.True(t, isValidation, "expected ValidationError, got %T", err)
}

func TestValidateIntegrationType(t *testing.T) {
	ctx := context.Background()

	for _, known := range domainHealth.AllTypes() {
		parsed, err := ValidateIntegrationType(ctx, string(known))
		require.NoError(t, err)
		assert.Equal(t, known, parsed)
	}

	_, err := ValidateIntegrationType(ctx, "twitter")
	require.Error(t, err)
	_, isValidation := err.(pkgError.ValidationError)
	assert.True(t, isValidation)
	assert.Contains(t, err.Error(), "twitter")
	assert.Contains(t, err.Error(), "slack")

	_, err = ValidateIntegrationType(ctx, "")
	require.Error(t, err)
}
