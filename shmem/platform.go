package shmem

import "errors"

// errSegmentExists is returned by platformCreate when the randomly chosen
// name collided with an existing segment; CreateSegment retries on a fresh
// name rather than surfacing this to the caller.
var errSegmentExists = errors.New("shmem: segment name already exists")
