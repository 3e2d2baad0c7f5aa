//go:build linux

package affinity

import (
	"runtime"
	"testing"
)

func TestSetAffinityPinsThread(t *testing.T) {
	allowed, err := Current()
	if err != nil || len(allowed) == 0 {
		t.Skipf("cannot read affinity: %v", err)
	}
	target := allowed[len(allowed)-1]

	done := make(chan []int, 1)
	go func() {
		// Returning while still locked makes the runtime retire the pinned thread.
		runtime.LockOSThread()
		if err := SetAffinity(target); err != nil {
			t.Errorf("SetAffinity(%d): %v", target, err)
			done <- nil
			return
		}
		cur, _ := Current()
		done <- cur
	}()
	cur := <-done
	if len(cur) != 1 || cur[0] != target {
		t.Fatalf("affinity = %v, want [%d]", cur, target)
	}
}

func TestSetAffinityRejectsNegative(t *testing.T) {
	if err := SetAffinity(-1); err == nil {
		t.Fatal("negative cpu accepted")
	}
}
