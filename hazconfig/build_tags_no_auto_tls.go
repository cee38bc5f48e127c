//go:build no_auto_tls

package hazconfig

// Built only under the no_auto_tls tag: selects the explicit-reference
// LocalAccess variant by default, matching spec.md §6's
// "no-automatic-thread-local" build mode. HAZPTR_NO_AUTO_TLS remains
// authoritative when set.
func init() {
	defaultNoAutoTLS = true
}
