// Package shm implements the per-car shared segment: a POSIX-shared-memory
// region ("/car<name>") jointly mutated by the car process and the safety
// supervisor process, guarded by a process-shared mutex and condition
// variable.
//
// Go has no native process-shared pthread_mutex_t/pthread_cond_t. Following
// the substitution the design allows (a shared futex-backed word plus a
// short message queue, preserving the §5 discipline that every field read
// or write happens inside the critical section), this implementation backs
// the segment with a memory-mapped regular file: the mutex is a kernel
// file-lock (golang.org/x/sys/unix.Flock) on that file's descriptor, which
// is process-shared by construction, and the condition variable is a
// generation counter inside the segment that waiters poll at a short fixed
// interval while holding no lock between polls.
package shm

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// DoorStatus mirrors wire.DoorStatus without importing the wire package,
// keeping shm a leaf package with no protocol-framing dependency; the car
// package converts between the two at its boundary.
type DoorStatus byte

const (
	StatusOpening DoorStatus = iota
	StatusOpen
	StatusClosing
	StatusClosed
	StatusBetween
)

func (s DoorStatus) Valid() bool {
	return s <= StatusBetween
}

// layout: fixed byte offsets into the mapped region. Every field fits in a
// small fixed-width slot so the segment's size and shape never change.
const (
	offCurrentFloor   = 0  // int16, little-endian
	offDestFloor      = 2  // int16, little-endian
	offStatus         = 4  // byte, DoorStatus
	offOpenButton     = 5  // byte, 0/1
	offCloseButton    = 6  // byte, 0/1
	offDoorObstructed = 7  // byte, 0/1
	offOverload       = 8  // byte, 0/1
	offEmergencyStop  = 9  // byte, 0/1
	offFireAlarm      = 10 // byte, 0/1 (supplemented per SPEC_FULL.md)
	offIndividualSvc  = 11 // byte, 0/1
	offEmergencyMode  = 12 // byte, 0/1
	offSafetySystem   = 13 // byte, heartbeat counter
	offDestChanged    = 14 // byte, 0/1; the arrival-at-destination latch (see fields.go)
	offGeneration     = 15 // uint32, little-endian; the condvar substitute
	segmentSize       = 19
)

// Segment is a handle on one car's mapped shared-memory region.
type Segment struct {
	name string
	file *os.File
	data []byte
}

// baseDir is where the backing files for shared segments live. /dev/shm is
// used when present (true POSIX shared memory on Linux); elsewhere this
// falls back to the OS temp directory, which still gives every process on
// the same host a shared, named, mmap'able file.
func baseDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

func segmentPath(name string) string {
	return filepath.Join(baseDir(), "car"+name)
}

// Create creates (or reopens) the segment for car name, truncating it to
// the exact segment size and zero-initializing it if it was just created.
// This mirrors shm_open(O_CREAT|O_EXCL) falling back to O_RDWR on EEXIST
// in the original car process.
func Create(name string) (*Segment, error) {
	path := segmentPath(name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	if info.Size() != segmentSize {
		if err := f.Truncate(segmentSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("shm: truncate %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, segmentSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}

	return &Segment{name: name, file: f, data: data}, nil
}

// Open attaches to the segment for car name, as the safety process and
// internal-service client do. It is the same operation as Create: a
// segment that does not exist yet is created, not reported as an error.
func Open(name string) (*Segment, error) {
	return Create(name)
}

// Close unmaps and closes the segment's backing file descriptor. It does
// not remove the file, matching POSIX shared memory semantics where the
// segment persists until explicitly unlinked.
func (s *Segment) Close() error {
	if err := unix.Munmap(s.data); err != nil {
		return fmt.Errorf("shm: munmap: %w", err)
	}
	return s.file.Close()
}

// Lock acquires the process-shared mutex substitute (an exclusive flock on
// the segment's backing file).
func (s *Segment) Lock() error {
	if err := unix.Flock(int(s.file.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("shm: lock: %w", err)
	}
	return nil
}

// Unlock releases the process-shared mutex substitute.
func (s *Segment) Unlock() error {
	if err := unix.Flock(int(s.file.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("shm: unlock: %w", err)
	}
	return nil
}

// Broadcast increments the generation counter, the substitute for
// pthread_cond_broadcast. Must be called while holding the lock.
func (s *Segment) Broadcast() {
	gen := binary.LittleEndian.Uint32(s.data[offGeneration:])
	binary.LittleEndian.PutUint32(s.data[offGeneration:], gen+1)
}

func (s *Segment) generation() uint32 {
	return binary.LittleEndian.Uint32(s.data[offGeneration:])
}

// pollInterval is the fixed polling granularity used to emulate a
// process-shared condition variable wait.
const pollInterval = 1 * time.Millisecond

// Wait blocks, releasing the lock, until Broadcast is called by another
// process (observed as a generation bump), then reacquires the lock. The
// caller must hold the lock on entry and will hold it again on return.
func (s *Segment) Wait() error {
	return s.WaitUntil(time.Time{})
}

// WaitUntil behaves like Wait but also returns if deadline elapses first
// (deadline.IsZero() means no deadline). It returns (nil) whether it woke
// due to a broadcast or a deadline timeout; callers re-check the predicate
// they were waiting on after return, per standard condvar usage.
func (s *Segment) WaitUntil(deadline time.Time) error {
	startGen := s.generation()
	if err := s.Unlock(); err != nil {
		return err
	}

	for {
		time.Sleep(pollInterval)
		if err := s.Lock(); err != nil {
			return err
		}
		if s.generation() != startGen {
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil
		}
		if err := s.Unlock(); err != nil {
			return err
		}
	}
}
