package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

// resultFD is the descriptor number of the result channel in a worker
// process: the first entry of ExtraFiles.
const resultFD = 3

// ProcessConfig configures workers running as hasher processes.
type ProcessConfig struct {
	// Path of the hasher binary.
	Path string
	// Args are passed before the worker flags.
	Args []string
	// Env is appended to the environment of the coordinator.
	Env []string
	// InputPath is the content file every worker reads on its own.
	InputPath string
	// Stderr of the workers, os.Stderr if nil.
	Stderr *os.File
}

// ProcessSpawner runs every worker as a separate OS process.
type ProcessSpawner struct {
	cfg ProcessConfig
}

func NewProcessSpawner(cfg ProcessConfig) *ProcessSpawner {
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &ProcessSpawner{cfg: cfg}
}

func (s *ProcessSpawner) Spawn(ctx context.Context, spec Spec) (Handle, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating result pipe of worker %d: %w", shared.ErrChannel, spec.ID, err)
	}

	args := append(slices.Clone(s.cfg.Args),
		"--input", s.cfg.InputPath,
		"--fd", strconv.Itoa(resultFD),
		"--zeros", strconv.FormatUint(uint64(spec.Difficulty), 10),
		"--id", strconv.Itoa(spec.ID),
	)
	cmd := exec.Command(s.cfg.Path, args...)
	cmd.Env = append(os.Environ(), s.cfg.Env...)
	cmd.Stderr = s.cfg.Stderr
	cmd.ExtraFiles = []*os.File{w}
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("%w: starting worker %d: %w", shared.ErrSpawn, spec.ID, err)
	}
	// The child holds the only write end from now on, so the read end sees
	// EOF as soon as it exits.
	if err := w.Close(); err != nil {
		logging.FromContext(ctx).Warn("failed to close parent copy of result pipe", zap.Int("worker", spec.ID), zap.Error(err))
	}
	logging.FromContext(ctx).Debug("started worker process", zap.Int("worker", spec.ID), zap.Int("pid", cmd.Process.Pid))

	return &processHandle{
		id:   spec.ID,
		cmd:  cmd,
		recv: transport.NewStreamReceiver(r, shared.TemplateSize(len(spec.Content))),
	}, nil
}

type processHandle struct {
	id   int
	cmd  *exec.Cmd
	recv *transport.StreamReceiver
}

func (h *processHandle) ID() int {
	return h.id
}

func (h *processHandle) Receiver() transport.Receiver {
	return h.recv
}

func (h *processHandle) Wait() error {
	if err := h.cmd.Wait(); err != nil {
		return fmt.Errorf("worker process %d: %w", h.id, err)
	}
	// A clean exit means the frame was written; let the drain finish so
	// that Receive never races the end of the stream.
	<-h.recv.Drained()
	return nil
}

func (h *processHandle) Cancel() error {
	err := h.cmd.Process.Signal(os.Interrupt)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
