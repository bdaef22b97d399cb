// Copyright 2025 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package errors

import "errors"

var (
	// ErrInvalid indicates that a parameter value or an object state is
	// not acceptable for the operation requested
	ErrInvalid = errors.New("invalid parameter or state")

	// ErrNotExist indicates that the requested object is not found or
	// does not exist
	ErrNotExist = errors.New("does not exist")

	// ErrExist indicates that the object cannot be created or added
	// because it already exists
	ErrExist = errors.New("already exists")

	// ErrClosed indicates that the object is already closed and cannot
	// be used anymore
	ErrClosed = errors.New("closed")
)

// Is reports whether any error in err's tree matches target. It is a
// convenience re-export, so the library code and its clients may import
// this package only.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
