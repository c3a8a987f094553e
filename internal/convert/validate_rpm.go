package convert

import (
	"fmt"
	"os"

	"github.com/sassoftware/go-rpmutils"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// validateRPM reads the header of a built .rpm and cross-checks it against
// the record the package was built for.
func validateRPM(path string, app *catalog.Application) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return fmt.Errorf("read rpm header: %w", err)
	}

	if got, want := rpmStringTag(rpm, rpmutils.NAME), PackageName(app); got != want {
		return fmt.Errorf("rpm package name %q does not match record %q", got, want)
	}
	if got, want := rpmStringTag(rpm, rpmutils.VERSION), PackageVersion(app); got != want {
		return fmt.Errorf("rpm version %q does not match record %q", got, want)
	}
	if got, want := rpmStringTag(rpm, rpmutils.ARCH), app.Architecture; got != want && got != "noarch" {
		return fmt.Errorf("rpm architecture %q does not match record %q", got, want)
	}
	return nil
}

// rpmStringTag safely gets a string tag from an RPM header.
func rpmStringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
