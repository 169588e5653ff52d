// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoRuntimeFields(t *testing.T) {
	info := Info()

	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.GoOS)
	assert.Equal(t, runtime.GOARCH, info.GoArch)
}

func TestInfoBuildFields(t *testing.T) {
	version = "v0.3.0"
	buildTime = "2025-06-01T12:00:00Z"
	gitBranch = "main"
	gitCommit = "abcdef123456"

	info := Info()
	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "2025-06-01T12:00:00Z", info.BuildTime)
	assert.Equal(t, "main", info.GitBranch)
	assert.Equal(t, "abcdef123456", info.GitCommit)
}
