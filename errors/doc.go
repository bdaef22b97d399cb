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
/*
Package errors defines the general classes of errors the library reports.
The globally defined error variables describe the situation class, and the
call sites wrap them with the call context:

	return fmt.Errorf("the capacity=%d cannot be negative: %w", n, errors.ErrInvalid)

Callers are expected to test the class with errors.Is (or the Is helper
here) rather than comparing messages.
*/
package errors
