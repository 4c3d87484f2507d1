package manifest

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/jubilantx-labs/jubilantx/internal/registry"
)

// APIVersion is the version of the extension contract manifests can target
// with "requires".
const APIVersion = "1.0.0"

var apiVersion = semver.MustParse(APIVersion)

// CheckCompatibility reports whether a manifest's requires constraint admits
// APIVersion. An empty constraint is always satisfied. A constraint that is
// not satisfied yields an error wrapping registry.ErrUnavailable; a malformed
// one yields a plain error.
func CheckCompatibility(requires string) error {
	if requires == "" {
		return nil
	}
	c, err := semver.NewConstraint(requires)
	if err != nil {
		return fmt.Errorf("parsing requires constraint %q: %w", requires, err)
	}
	if ok, errs := c.Validate(apiVersion); !ok {
		reason := fmt.Sprintf("extension API %s does not satisfy %q", APIVersion, requires)
		if len(errs) > 0 {
			reason = errs[0].Error()
		}
		return fmt.Errorf("%s: %w", reason, registry.ErrUnavailable)
	}
	return nil
}
