package version

import (
	"errors"
	"testing"

	"notifyd/internal/notify"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	if err := Validate(App); err != nil {
		t.Fatalf("current version %q must validate: %v", App, err)
	}
	for _, bad := range []string{"v2.3", "2.3.4", "v2.3.4-rc1", "version", ""} {
		err := Validate(bad)
		if err == nil {
			t.Fatalf("Validate(%q): expected error", bad)
		}
		var fe *notify.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("Validate(%q): error %v is not a FormatError", bad, err)
		}
	}
}
