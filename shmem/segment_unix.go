//go:build darwin || linux || freebsd || netbsd || openbsd || dragonfly

package shmem

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// shmDir is the platform's shared-memory-backed tmpfs mount, the same
// directory the POSIX shm_open(3) family uses under the hood. Falling back
// to os.TempDir keeps this portable to unix-family systems that don't
// mount /dev/shm, at the cost of those segments living on whatever
// filesystem backs the temp directory instead of tmpfs.
func shmDir() string {
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

func platformCreate(name string, size int) ([]byte, error) {
	path := filepath.Join(shmDir(), name)
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		if err == unix.EEXIST {
			return nil, errSegmentExists
		}
		return nil, err
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Unlink(path)
		return nil, err
	}

	b, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Unlink(path)
		return nil, err
	}
	return b, nil
}

func platformOpen(name string) ([]byte, error) {
	path := filepath.Join(shmDir(), name)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, err
	}

	b, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func platformUnmap(b []byte) error {
	return unix.Munmap(b)
}
