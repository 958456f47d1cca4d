// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package util

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenTmpPath(t *testing.T) {
	path, err := GenTmpPath()
	require.NoError(t, err)
	require.NotEqual(t, "", path)
	defer os.RemoveAll(path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestBuffer(t *testing.T) {
	b := GetBuffer(1 << 10)
	require.Equal(t, 0, len(b))
	require.True(t, cap(b) >= 1<<10)

	b = append(b, 1, 2, 3)
	PutBuffer(b)

	b = GetBuffer(1 << 10)
	require.Equal(t, 0, len(b))
	PutBuffer(b)
	PutBuffer(nil)
}

func TestManualClock(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewManualClock(start)
	require.Equal(t, start, c.Now())
	require.Equal(t, start.Add(time.Second), c.Advance(time.Second))
	require.Equal(t, start.Add(time.Second), c.Now())

	c.Set(start)
	require.Equal(t, start, c.Now())

	require.False(t, SystemClock.Now().IsZero())
}
