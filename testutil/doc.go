// Package testutil adds test lifecycle helpers on top of component.Component.
//
// A TestComponent can be reset between cases and snapshotted so a test can
// return to a known state:
//
//	func TestCancel(t *testing.T) {
//	    backend := apitest.New()
//	    testutil.T(t).Setup(backend) // stopped on t.Cleanup
//	    snap := testutil.T(t).Snapshot(backend)
//	    ...
//	    testutil.T(t).Restore(backend, snap)
//	}
package testutil
