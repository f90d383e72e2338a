// Package version pins the application version and validates its form.
package version

import (
	"regexp"

	"notifyd/internal/notify"
)

// App is the released version, bumped per deployment.
const App = "v2.8.4"

var versionRe = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// Validate enforces the vMAJOR.MINOR.PATCH form. A mismatch is a hard
// format failure, same class as a malformed daily time.
func Validate(v string) error {
	if !versionRe.MatchString(v) {
		return &notify.FormatError{Field: "version", Value: v, Want: "vX.Y.Z"}
	}
	return nil
}
