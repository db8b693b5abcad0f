package main

import "runtime/debug"

// version is stamped by release builds with -ldflags "-X main.version=...".
var version string

func init() {
	if version != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		version = "dev"
		return
	}
	version = describeBuild(info.Main.Version, info.Settings)
}

// describeBuild prefers the module version from `go install pkg@version` and
// falls back to the VCS revision stamped into local builds.
func describeBuild(moduleVersion string, settings []debug.BuildSetting) string {
	if moduleVersion != "" && moduleVersion != "(devel)" {
		return moduleVersion
	}

	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	rev := vcs["vcs.revision"]
	if rev == "" {
		return "dev"
	}
	rev = rev[:min(len(rev), 12)]
	if vcs["vcs.modified"] == "true" {
		rev += "+dirty"
	}
	return rev
}
