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

// Command kernelctl is a demo front-end for the kernel core: it boots a
// Session, spawns a handful of synthetic tasks under a chosen scheduler
// policy, and prints a summary (live task count, or per-CPU run-queue
// statistics for "stats") once a fixed duration has passed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"kernelcore/internal/kconfig"
)

var configPath = flag.String("config", "", "path to a TOML file overriding the compiled-in kernel tunables")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&statsCmd{}, "")

	flag.Parse()

	cfg, err := kconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernelctl: loading config: %v\n", err)
		os.Exit(1)
	}

	os.Exit(int(subcommands.Execute(context.Background(), &cfg)))
}
