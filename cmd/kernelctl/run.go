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

// runCmd implements subcommands.Command for the "run" command. It boots
// a session and spawns count synthetic tasks under the named policy,
// purely to exercise the scheduler live; it is not a general-purpose
// process launcher.
type runCmd struct {
	policy   string
	count    int
	duration time.Duration
}

// Name implements subcommands.Command.Name.
func (*runCmd) Name() string { return "run" }

// Synopsis implements subcommands.Command.Synopsis.
func (*runCmd) Synopsis() string {
	return "boot a kernel core session and spawn synthetic tasks under a scheduler policy"
}

// Usage implements subcommands.Command.Usage.
func (*runCmd) Usage() string {
	return "run [flags] - boots one session and lets it schedule synthetic tasks\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.policy, "policy", "normal", "scheduler policy for spawned tasks: realtime, normal, or idle")
	f.IntVar(&r.count, "count", 4, "number of synthetic tasks to spawn")
	f.DurationVar(&r.duration, "duration", 2*time.Second, "how long to let the session run before reporting and exiting")
}

// Execute implements subcommands.Command.Execute.
func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg, ok := args[0].(*kconfig.Config)
	if !ok {
		fmt.Println("kernelctl: internal error: missing config argument")
		return subcommands.ExitFailure
	}

	policy, err := parsePolicy(r.policy)
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitUsageError
	}

	sess := session.New(*cfg, nil)
	if err := sess.Start(); err != nil {
		fmt.Printf("kernelctl: starting session: %v\n", err)
		return subcommands.ExitFailure
	}

	for i := 0; i < r.count; i++ {
		n := i
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
			fmt.Printf("kernelctl: spawning task %d: %v\n", n, err)
			return subcommands.ExitFailure
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(r.duration):
	}

	fmt.Printf("kernelctl: %d tasks live after %s\n", sess.Manager.TaskCount(), r.duration)
	return subcommands.ExitSuccess
}

func parsePolicy(name string) (kernel.Policy, error) {
	switch name {
	case "realtime":
		return kernel.PolicyRealTime, nil
	case "normal":
		return kernel.PolicyNormal, nil
	case "idle":
		return kernel.PolicyIdle, nil
	default:
		return 0, fmt.Errorf("kernelctl: unknown policy %q (want realtime, normal, or idle)", name)
	}
}
