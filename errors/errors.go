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

package errors

import "errors"

// recoverable errors, returned to the caller.
// invariant violations never show up here, they panic at the point of detection.
var (
	ErrLockUnsupported = errors.New("lock is not supported by this object")
	ErrObjectNotFound  = errors.New("cache object does not exist")
	ErrObjectExists    = errors.New("cache object already exists")

	ErrTruncated      = errors.New("buffer truncated")
	ErrTrailingBytes  = errors.New("trailing bytes after decode")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrSamplerStopped = errors.New("sampler stopped")
)
