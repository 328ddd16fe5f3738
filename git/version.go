package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// MinVersion is the oldest git histedit drives. `branch --show-current` and
// the merge-based rebase backend both need at least this release.
var MinVersion = Version{Major: 2, Minor: 26}

// Version is a parsed git release number.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v is an older release than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}

	return v.Patch < other.Patch
}

// ParseVersion parses `git --version` output. Vendor suffixes such as
// "(Apple Git-146)" or ".windows.1" are tolerated.
func ParseVersion(out string) (Version, error) {
	s := strings.TrimSpace(out)
	if idx := strings.Index(s, "git version"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("git version"):])
	}

	// Keep only the leading numeric/dot portion.
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}

	parts := strings.Split(strings.Trim(s[:end], "."), ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("unable to parse git version: %q", out)
	}

	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}, fmt.Errorf(
				"unable to parse git version: %q", out,
			)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// CheckVersion runs `git --version` and rejects releases older than
// MinVersion.
func CheckVersion(ctx context.Context, runner Runner) (Version, error) {
	res, err := runner.Run(ctx, Invocation{Args: []string{"--version"}})
	if err != nil {
		return Version{}, err
	}
	if !res.Success() {
		return Version{}, &CommandError{
			Args: []string{"--version"}, ExitCode: res.ExitCode,
			Stderr: res.Stderr,
		}
	}

	v, err := ParseVersion(res.Stdout)
	if err != nil {
		return Version{}, err
	}
	if v.Less(MinVersion) {
		return v, &VersionError{Have: v, Want: MinVersion}
	}

	return v, nil
}
