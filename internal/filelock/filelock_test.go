package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")
	lock := NewFileLock(lockPath)

	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLockHeldElsewhere(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	first := NewFileLock(lockPath)
	if err := first.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer first.Unlock()

	acquired, err := NewFileLock(lockPath).TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if acquired {
		t.Error("TryLock() should fail while another lock is held")
	}
}

func TestAcquireRunLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "phishdrill.db")

	lock, err := AcquireRunLock(dbPath)
	if err != nil {
		t.Fatalf("AcquireRunLock() error = %v", err)
	}
	if lock.Path() != dbPath+".lock" {
		t.Errorf("lock path = %s, want %s", lock.Path(), dbPath+".lock")
	}

	_, err = AcquireRunLock(dbPath)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("second AcquireRunLock() error = %v, want ErrLocked", err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	again, err := AcquireRunLock(dbPath)
	if err != nil {
		t.Fatalf("AcquireRunLock() after unlock error = %v", err)
	}
	again.Unlock()
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "users.csv")

	if err := AtomicWrite(path, []byte("first")); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}
	if err := AtomicWrite(path, []byte("second")); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestAtomicWriteIntoFileFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(filepath.Join(blocker, "out.json"), []byte("{}")); err == nil {
		t.Error("AtomicWrite() under a regular file should fail")
	}
}

func TestLockAndWriteConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := LockAndWrite(path, []byte(strconv.Itoa(n))); err != nil {
				t.Errorf("LockAndWrite() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil || n < 0 || n > 9 {
		t.Errorf("content %q is not one complete write", data)
	}
}
