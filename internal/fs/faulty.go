package fs

import (
	"errors"
	"os"
	"sync"
)

// ErrInjected is the error returned by injected faults.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes once a file holds this many bytes. -1 to disable.
	FailOnSync     bool
	FailOnRename   bool
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS FileSystem

	mu      sync.Mutex
	fault   Fault
	written int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		fault: Fault{FailAfterBytes: -1},
	}
}

// SetFault replaces the active fault.
func (f *FaultyFS) SetFault(fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = fault
}

// Written returns the total bytes written through f.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

func (f *FaultyFS) current() Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fault
}

func (f *FaultyFS) CreateTemp(dir, pattern string) (File, error) {
	file, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if f.current().FailOnRename {
		return ErrInjected
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error { return f.FS.Remove(name) }

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

type faultyFile struct {
	File
	fs   *FaultyFS
	size int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	fault := ff.fs.current()
	n := len(p)
	var err error
	if fault.FailAfterBytes >= 0 && ff.size+int64(n) > fault.FailAfterBytes {
		n = int(max(0, fault.FailAfterBytes-ff.size))
		err = ErrInjected
	}
	if n > 0 {
		var werr error
		n, werr = ff.File.Write(p[:n])
		if werr != nil {
			err = werr
		}
	}
	ff.size += int64(n)
	ff.fs.mu.Lock()
	ff.fs.written += int64(n)
	ff.fs.mu.Unlock()
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fs.current().FailOnSync {
		return ErrInjected
	}
	return ff.File.Sync()
}
