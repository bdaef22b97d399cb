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
package weakref

// cleanState carries the add accounting shared by all the containers. Every
// operation which stores a new weak slot counts one add; when the automatic
// clean threshold is enabled (autoCleanAdds > 0) and the counter goes beyond
// it, the container runs its Clean synchronously, on the caller's goroutine,
// before the operation returns. So with the threshold N the adds 1..N after
// a clean do not trigger anything and the add N+1 does. Clean and Clear reset
// the counter unconditionally, whether or not anything was removed.
type cleanState struct {
	autoCleanAdds  int
	trimOnClean    bool
	addsSinceClean int
}

// countAdd registers one add and reports whether the automatic clean
// threshold is exceeded. The caller runs its Clean when it is.
func (cs *cleanState) countAdd() bool {
	cs.addsSinceClean++
	return cs.autoCleanAdds > 0 && cs.addsSinceClean > cs.autoCleanAdds
}

// reset starts a new add-counting period
func (cs *cleanState) reset() {
	cs.addsSinceClean = 0
}
