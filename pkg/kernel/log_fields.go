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

package kernel

import "github.com/sirupsen/logrus"

func fieldsCPU(cpu uint32) logrus.Fields {
	return logrus.Fields{"cpu": cpu}
}

func fieldsTask(pid uint64, cpu uint32) logrus.Fields {
	return logrus.Fields{"pid": pid, "cpu": cpu}
}
