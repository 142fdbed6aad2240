package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidFile holds the open PID file for the server's lifetime
type pidFile struct {
	path   string
	file   *os.File
	locked bool
}

// managePIDFile writes the server PID to path, optionally holding an exclusive
// lock so a second instance refuses to start. The returned cleanup removes it.
func managePIDFile(path string, lock bool) (func(), error) {
	pf := &pidFile{path: path}
	if err := pf.open(lock); err != nil {
		return nil, err
	}
	if lock {
		if err := pf.lock(); err != nil {
			pf.file.Close()
			return nil, err
		}
	}
	if err := pf.write(os.Getpid()); err != nil {
		pf.release()
		return nil, err
	}
	return pf.release, nil
}

func (pf *pidFile) open(lock bool) error {
	file, err := os.OpenFile(pf.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err == nil {
		pf.file = file
		return nil
	}
	if !os.IsExist(err) {
		return fmt.Errorf("cannot create PID file: %w", err)
	}

	// A leftover file is reused unless locking says its owner is alive
	if lock {
		if err := checkExistingPID(pf.path); err != nil {
			return err
		}
	}
	file, err = os.OpenFile(pf.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("cannot open PID file: %w", err)
	}
	pf.file = file
	return nil
}

func (pf *pidFile) lock() error {
	err := syscall.Flock(int(pf.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	switch {
	case err == nil:
		pf.locked = true
		return nil
	case errors.Is(err, syscall.EWOULDBLOCK):
		return fmt.Errorf("cannot acquire lock: another instance is running")
	default:
		return fmt.Errorf("lock failed: %w", err)
	}
}

func (pf *pidFile) write(pid int) error {
	if _, err := fmt.Fprintf(pf.file, "%d\n", pid); err != nil {
		return fmt.Errorf("cannot write PID: %w", err)
	}
	if err := pf.file.Sync(); err != nil {
		return fmt.Errorf("cannot sync PID file: %w", err)
	}
	return nil
}

func (pf *pidFile) release() {
	if pf.locked {
		syscall.Flock(int(pf.file.Fd()), syscall.LOCK_UN)
	}
	pf.file.Close()
	os.Remove(pf.path)
}

// checkExistingPID fails when the recorded process is still running. A file
// naming a dead process is treated as stale and may be taken over.
func checkExistingPID(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupted PID file (contains: %q)", string(data))
	}

	// FindProcess never fails on Unix; signal 0 checks for existence
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return fmt.Errorf("process %d is already running", pid)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		return nil
	default:
		return fmt.Errorf("process %d exists but cannot verify ownership: %v", pid, err)
	}
}
