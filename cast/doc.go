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
Package cast contains helpers for pointer-typed optional values. A
configuration field declared as a pointer distinguishes "not set" (nil)
from the type's zero value, and the helpers here read such a field with a
default, or build one from a literal.
*/
package cast
