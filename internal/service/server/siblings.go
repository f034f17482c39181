package server

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/alarm-gateway/internal/logger"
)

// siblings returns the PIDs of other processes running the same executable.
func siblings() ([]int, error) {
	processes, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	self := os.Getpid()
	name := filepath.Base(os.Args[0])

	var pids []int

	for _, p := range processes {
		if p.Pid() != self && p.Executable() == name {
			pids = append(pids, p.Pid())
		}
	}

	return pids, nil
}

// warnAboutSiblings logs other gateway instances; they usually hold the port.
func warnAboutSiblings(ctx context.Context) {
	pids, err := siblings()
	if err != nil {
		logger.DebugKV(ctx, "Process list unavailable", "error", err)

		return
	}

	if len(pids) > 0 {
		logger.WarnKV(ctx, "Other alarm-gateway instances are running", "pids", pids)
	}
}
