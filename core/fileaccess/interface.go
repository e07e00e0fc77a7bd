// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package fileaccess

import "time"

// Generic interface for reading/writing sidecar records, provenance reports
// and composite outputs. Labs keep scan data either on a local drive or on
// shared S3 storage, so everything that touches the filesystem codes against
// this and can be swapped out (or mocked in tests).
//
// The first parameter is a root: a directory for the local implementation, a
// bucket for S3. Paths are relative to that root.

type FileAccess interface {
	// ListObjects - all object paths under root that begin with prefix.
	// Paths returned are relative to root.
	ListObjects(root string, prefix string) ([]string, error)

	ObjectExists(root string, path string) (bool, error)

	// LastModified - modification time, used to pick the most recent sidecar
	// when a directory holds several.
	LastModified(root string, path string) (time.Time, error)

	ReadObject(root string, path string) ([]byte, error)

	// WriteObject - creates intermediate directories as needed. Implementations
	// must be atomic: a crash mid-write never leaves a partial object readable
	// at path. Local writes go via temp file + rename, S3 PUTs are all-or-nothing.
	WriteObject(root string, path string, data []byte) error

	ReadJSON(root string, path string, itemsPtr interface{}) error
	WriteJSON(root string, path string, itemsPtr interface{}) error

	DeleteObject(root string, path string) error

	IsNotFoundError(err error) bool
}
