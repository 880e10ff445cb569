package process

// Notes:
// - KillProcessGroup is only exercised with PIDs that cannot belong to a live
//   process group; real termination is covered by the diagram runner timeout test.

import (
	"os/exec"
	"testing"
)

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
	KillProcessGroup(0)
	KillProcessGroup(-1)
}

func TestIsolate_SetsAttributes(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	Isolate(cmd)
	if cmd.SysProcAttr == nil {
		t.Fatal("Isolate() left SysProcAttr nil")
	}

	// Idempotent on an already configured command.
	Isolate(cmd)
}
