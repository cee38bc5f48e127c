//go:build count_release

package hazconfig

// This file, built only under the count_release tag, overrides the default
// count mode at compile time. spec.md §6 names "count-release" as a
// build-time mode alongside the HAZPTR_COUNT_MODE environment variable;
// the environment variable remains authoritative (see DESIGN.md) and this
// tag only changes what Load falls back to when the variable is unset.
func init() {
	defaultCountMode = ByRelease
}
