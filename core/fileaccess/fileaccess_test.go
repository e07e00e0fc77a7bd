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

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testRecord struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Both implementations used in-process get run through the same checks
func TestLocalFileSystem(t *testing.T) {
	runFileAccessChecks(t, &FSAccess{}, t.TempDir())
}

func TestMemoryAccess(t *testing.T) {
	runFileAccessChecks(t, MakeMemoryAccess(), "mem-root")
}

func runFileAccessChecks(t *testing.T, fs FileAccess, root string) {
	exists, err := fs.ObjectExists(root, "sub/data.json")
	if err != nil || exists {
		t.Fatalf("expected no object before write, got exists=%v err=%v", exists, err)
	}

	// Write creates intermediate dirs
	if err := fs.WriteJSON(root, "sub/data.json", testRecord{Name: "plate03", Value: 4}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	exists, err = fs.ObjectExists(root, "sub/data.json")
	if err != nil || !exists {
		t.Fatalf("expected object after write, got exists=%v err=%v", exists, err)
	}

	var read testRecord
	if err := fs.ReadJSON(root, "sub/data.json", &read); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if read.Name != "plate03" || read.Value != 4 {
		t.Errorf("round trip mismatch: %+v", read)
	}

	if err := fs.WriteObject(root, "sub/other.bin", []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteObject failed: %v", err)
	}

	listing, err := fs.ListObjects(root, "sub")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(listing) != 2 {
		t.Errorf("expected 2 objects, got %v", listing)
	}
	for _, p := range listing {
		if !strings.HasPrefix(p, "sub/") {
			t.Errorf("listing returned non-relative path: %v", p)
		}
	}

	_, err = fs.ReadObject(root, "sub/nope.bin")
	if err == nil || !fs.IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}

	if err := fs.DeleteObject(root, "sub/other.bin"); err != nil {
		t.Errorf("DeleteObject failed: %v", err)
	}
	exists, _ = fs.ObjectExists(root, "sub/other.bin")
	if exists {
		t.Errorf("object still exists after delete")
	}
}

// A crash mid-write must never leave a readable partial file: writes go to a
// temp name and rename into place, so no temp residue survives a good write
func TestLocalWriteIsAtomic(t *testing.T) {
	root := t.TempDir()
	fs := &FSAccess{}

	if err := fs.WriteObject(root, "record.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("WriteObject failed: %v", err)
	}
	// Overwrite - rename must replace, not append or error
	if err := fs.WriteObject(root, "record.json", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := fs.ReadObject(root, "record.json")
	if err != nil || string(data) != `{"a":2}` {
		t.Fatalf("read back %v, %v", string(data), err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %v", filepath.Join(root, e.Name()))
		}
	}
}

func TestMemoryModTimes(t *testing.T) {
	fs := MakeMemoryAccess()
	fs.WriteObject("r", "a.json", []byte("{}"))
	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	fs.ModTimes["r/a.json"] = stamp

	got, err := fs.LastModified("r", "a.json")
	if err != nil || !got.Equal(stamp) {
		t.Errorf("LastModified got %v, %v", got, err)
	}

	_, err = fs.LastModified("r", "b.json")
	if err == nil || !fs.IsNotFoundError(err) {
		t.Errorf("expected not-found for missing object, got %v", err)
	}
}
