package validations

import (
	"context"
	"fmt"
	"strings"

	domainHealth "github.com/nexlify/healthwatch/domains/health"
	pkgError "github.com/nexlify/healthwatch/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type healthRequest struct {
	WorkspaceID string
}

func ValidateWorkspaceID(ctx context.Context, workspaceID string) error {
	request := healthRequest{WorkspaceID: workspaceID}
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.WorkspaceID, validation.Required, validation.Length(1, 128)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidateIntegrationType checks the raw path segment against the closed set
// of supported types before anything reaches the probe dispatch.
func ValidateIntegrationType(ctx context.Context, raw string) (domainHealth.IntegrationType, error) {
	if raw == "" {
		return "", pkgError.ValidationError("integration type cannot be blank")
	}

	t, ok := domainHealth.ParseIntegrationType(raw)
	if !ok {
		valid := make([]string, 0, len(domainHealth.AllTypes()))
		for _, known := range domainHealth.AllTypes() {
			valid = append(valid, string(known))
		}
		return "", pkgError.ValidationError(fmt.Sprintf("unknown integration type %q, valid types are: %s", raw, strings.Join(valid, ", ")))
	}

	return t, nil
}
