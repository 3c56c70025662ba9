//go:build windows

package shmem

import (
	"reflect"
	"sync"
	"syscall"
	"unsafe"
)

// Windows has no /dev/shm; named shared memory is a CreateFileMapping
// object backed by the system paging file, identified by name rather than
// a filesystem path. We keep a process-local table from mapped base
// address back to its Handle so Munmap-equivalents can find the handle to
// close, the same bookkeeping cznic/memory's mmap_windows.go uses.
var (
	handleMu  sync.Mutex
	handleMap = map[uintptr]syscall.Handle{}
)

func platformCreate(name string, size int) ([]byte, error) {
	sizeHigh := uint32(int64(size) >> 32)
	sizeLow := uint32(int64(size) & 0xFFFFFFFF)
	namePtr, err := syscall.UTF16PtrFromString(`Local\` + name)
	if err != nil {
		return nil, err
	}
	h, err := syscall.CreateFileMapping(syscall.InvalidHandle, nil, syscall.PAGE_READWRITE, sizeHigh, sizeLow, namePtr)
	if err == syscall.ERROR_ALREADY_EXISTS {
		syscall.CloseHandle(h)
		return nil, errSegmentExists
	}
	if h == 0 {
		return nil, err
	}
	return mapHandle(h, size)
}

func platformOpen(name string) ([]byte, error) {
	namePtr, err := syscall.UTF16PtrFromString(`Local\` + name)
	if err != nil {
		return nil, err
	}
	h, err := syscall.OpenFileMapping(syscall.FILE_MAP_WRITE, false, namePtr)
	if err != nil {
		return nil, err
	}
	// The size isn't recoverable from a mapping handle alone; the caller
	// (SegmentHandle) trusts the bootstrap metadata for the declared size,
	// mirroring how this same ambiguity is resolved on the POSIX side by
	// Fstat. Here we map the entire object by requesting size 0: Windows
	// maps from the view start to the end of the section.
	return mapHandle(h, 0)
}

func mapHandle(h syscall.Handle, size int) ([]byte, error) {
	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if addr == 0 {
		syscall.CloseHandle(h)
		return nil, err
	}
	handleMu.Lock()
	handleMap[addr] = h
	handleMu.Unlock()

	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = size
	sh.Cap = size
	return b, nil
}

func platformUnmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&b[0]))
	err := syscall.UnmapViewOfFile(addr)
	handleMu.Lock()
	h, ok := handleMap[addr]
	delete(handleMap, addr)
	handleMu.Unlock()
	if err != nil {
		return err
	}
	if ok {
		return syscall.CloseHandle(h)
	}
	return nil
}
