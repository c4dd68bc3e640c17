// Package version returns the version string of the running gadget binary.
package version

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// The value of these vars are set through linker options.
var gitCommit = "{STABLE_GIT_COMMIT}"
var buildDate = "{DATE}"
var gitTag = "Unknown"

// Version returns the version string of this build.
func Version() string {
	if buildDate == "{DATE}" {
		buildDate = time.Now().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s. Built at: %s", BuildData(), buildDate)
}

// BuildData returns the git tag and commit of the current build.
func BuildData() string {
	// Local builds are not interpolated by the linker.
	if gitCommit == "{STABLE_GIT_COMMIT}" {
		commit, err := exec.Command("git", "rev-parse", "HEAD").Output()
		if err != nil {
			logrus.WithError(err).Debug("Could not read git commit")
			gitCommit = "Local build"
		} else {
			gitCommit = strings.TrimRight(string(commit), "\r\n")
		}
	}
	return fmt.Sprintf("casper-gadget/%s/%s/%s", gitTag, gitCommit, runtime.Version())
}
