// Package native binds the validated LFMF solver library through cgo.
//
// The binding is compiled only with cgo enabled and the lfmf build tag, and
// links against libLFMF (for example `go build -tags lfmf` with the library
// on the linker path). Without the tag Open reports ErrUnavailable.
//
// The library is pure and reentrant, so one Engine is shared by every
// worker without locking. A native fault inside the library terminates the
// process; there is no in-process recovery at this boundary.
package native

import "errors"

// ErrUnavailable is returned by Open when the binary was built without the
// native LFMF binding.
var ErrUnavailable = errors.New("native LFMF engine not compiled in (build with cgo and -tags lfmf)")
