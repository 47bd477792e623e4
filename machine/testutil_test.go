package machine

import "testing"

// assert mirrors the teacher VM's own vm_test.go helper: a one-line
// failure reporter instead of a full assertion library, since nothing
// in the corpus reaches for testify or go-cmp.
func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}
