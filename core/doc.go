// Package core wraps the LFMF groundwave propagation engine (ITU-R P.368).
//
// The engine itself is an external solver reached through the Engine
// interface. This package owns what sits around that boundary: the
// validation gate that mirrors the engine's own ordered range checks, the
// typed error taxonomy for engine status codes, the Client that owns the
// engine handle, and the BatchEvaluator that runs sweeps of independent
// queries on a bounded worker pool with index-aligned output.
package core
