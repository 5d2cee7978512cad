//go:build !linux

package inhibit

// New returns a Noop inhibitor on non-Linux platforms.
func New(_ string) Inhibitor {
	return &Noop{}
}
