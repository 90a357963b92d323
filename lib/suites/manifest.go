// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import "github.com/accelbench/iaxbench/lib/bench"

// Manifest returns the registration callbacks for every suite, in the
// order their cases appear in the output stream. Callbacks register
// cases with the runner and execute nothing themselves; the entry
// point feeds them through a [bench.Registry] and drains it once
// before the measurement loop starts.
func Manifest(runner *bench.Runner, env *Env) []func() {
	return []func(){
		func() { registerDeflate(runner, env) },
		func() { registerInflate(runner, env) },
		func() { registerCRC64(runner, env) },
		func() { registerFilter(runner, env) },
		func() { registerBaseline(runner, env) },
		func() { registerThroughput(runner, env) },
	}
}
