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
package cast

// Ptr returns the pointer to the value v provided
func Ptr[T any](v T) *T {
	return &v
}

// Value returns the value for the pointer ptr provided. It returns defaultValue
// if the ptr is nil
func Value[T any](ptr *T, defaultValue T) T {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// Bool returns the bool value for the pointer provided, or defaultValue if ptr is nil
func Bool(ptr *bool, defaultValue bool) bool {
	return Value(ptr, defaultValue)
}

// BoolPtr returns the pointer to the value provided
func BoolPtr(v bool) *bool {
	return &v
}

// Int returns the int value for the pointer provided, or defaultValue if ptr is nil
func Int(ptr *int, defaultValue int) int {
	return Value(ptr, defaultValue)
}

// IntPtr returns the pointer to the value provided
func IntPtr(v int) *int {
	return &v
}
