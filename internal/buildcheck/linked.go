package buildcheck

import (
	"errors"
	"runtime"
	"runtime/debug"
	"strings"
)

var ErrNotLinked = errors.New("module not linked into binary")

// Devel is reported for a module replaced by a local directory, which has
// no release version.
const Devel = "(devel)"

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// LinkedVersion returns the version of modPath compiled into the running
// binary, following replace directives. A local directory replacement
// reports Devel.
func LinkedVersion(modPath string) (string, error) {
	bi, ok := readBuildInfo()
	if !ok {
		return "", errors.New("build information unavailable")
	}
	for _, d := range bi.Deps {
		if d.Path != modPath {
			continue
		}
		if d.Replace != nil {
			if d.Replace.Version == "" {
				return Devel, nil
			}
			return d.Replace.Version, nil
		}
		return d.Version, nil
	}
	return "", ErrNotLinked
}

// Info is the version and build information of the current binary.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`   // vcs.revision
	BuiltAt string `json:"built_at"` // vcs.time
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString(i.Version + " (" + i.Go + ", " + i.OS + "/" + i.Arch + ")\n")
	if i.Commit != "" {
		sb.WriteString("commit " + i.Commit + "\n")
	}
	if i.BuiltAt != "" {
		sb.WriteString("built at " + i.BuiltAt + "\n")
	}
	return sb.String()
}

func BuildInfo() Info {
	i := Info{Version: "devel", Go: runtime.Version(), OS: runtime.GOOS, Arch: runtime.GOARCH}
	bi, ok := readBuildInfo()
	if !ok {
		return i
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		i.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			i.Commit = s.Value
		case "vcs.time":
			i.BuiltAt = s.Value
		}
	}
	return i
}
