// Copyright 2024 The Kernelcore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"kernelcore/internal/kconfig"
	"kernelcore/pkg/kernel"
	"kernelcore/pkg/session"
)

// statsCmd implements subcommands.Command for the "stats" command. It
// boots a session, spawns one RealTime and one Normal synthetic task, lets
// it run for a short window, and prints each CPU's run-queue counters.
type statsCmd struct {
	duration time.Duration
}

// Name implements subcommands.Command.Name.
func (*statsCmd) Name() string { return "stats" }

// Synopsis implements subcommands.Command.Synopsis.
func (*statsCmd) Synopsis() string {
	return "run a short session and print per-CPU scheduler statistics"
}

// Usage implements subcommands.Command.Usage.
func (*statsCmd) Usage() string {
	return "stats [flags]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *statsCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&s.duration, "duration", time.Second, "how long to let the session run before reporting")
}

// Execute implements subcommands.Command.Execute.
func (s *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg, ok := args[0].(*kconfig.Config)
	if !ok {
		fmt.Println("kernelctl: internal error: missing config argument")
		return subcommands.ExitFailure
	}

	sess := session.New(*cfg, nil)
	if err := sess.Start(); err != nil {
		fmt.Printf("kernelctl: starting session: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, policy := range []kernel.Policy{kernel.PolicyRealTime, kernel.PolicyNormal} {
		policy := policy
		task := kernel.NewTask(0, 0, func(t *kernel.Task) {
			for iter := 0; ; iter++ {
				t.Manager.CheckPoint(t)
				if iter > 1000000 {
					return
				}
			}
		})
		task.Policy = policy
		if err := sess.Spawn(task); err != nil {
			fmt.Printf("kernelctl: spawning task: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(s.duration):
	}

	for cpu := 0; cpu < cfg.CPUCount; cpu++ {
		rq := sess.Manager.CPU(uint32(cpu))
		if rq == nil {
			continue
		}
		fmt.Printf("cpu %d: tick=%d schedules=%d idle_time=%d ready=%d\n",
			cpu, rq.LocalTick, rq.TotalSchedules, rq.IdleTime, rq.ReadyCount())
		for _, p := range []kernel.Policy{kernel.PolicyRealTime, kernel.PolicyNormal, kernel.PolicyIdle} {
			st := rq.Scheduler(p).Stats()
			fmt.Printf("  %-8s enqueues=%d dequeues=%d picks=%d preemptions=%d\n",
				p, st.Enqueues, st.Dequeues, st.Picks, st.Preemptions)
		}
	}

	return subcommands.ExitSuccess
}
