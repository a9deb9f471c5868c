// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

var (
	ctxOnce sync.Once
	ctxMu   sync.Mutex
	ctx     *cue.Context
)

// Locked runs f with the process-wide CUE context while holding the
// evaluation lock. The context is created on first use.
//
// The CUE runtime is not safe for concurrent evaluation, so every
// compile/unify/decode sequence must run inside a single Locked call.
// Keep file I/O outside f: parallel scan workers should only contend
// here for files that actually need re-evaluation.
func Locked(f func(ctx *cue.Context) error) error {
	ctxOnce.Do(func() {
		ctx = cuecontext.New()
	})
	ctxMu.Lock()
	defer ctxMu.Unlock()
	return f(ctx)
}
