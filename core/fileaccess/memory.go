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
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrObjectNotFound = errors.New("object not found")

// In-memory file access for unit tests. Objects are keyed by joined
// root+path. Mod times are settable so sidecar recency picking can be tested,
// and list/stat errors are injectable to simulate a directory disappearing or
// storage faulting mid-check.
type MemoryAccess struct {
	Objects    map[string][]byte
	ModTimes   map[string]time.Time
	ListErrors map[string]error // keyed by root, returned from ListObjects
	StatErrors map[string]error // keyed by joined root+path, returned from ObjectExists
}

func MakeMemoryAccess() *MemoryAccess {
	return &MemoryAccess{
		Objects:    map[string][]byte{},
		ModTimes:   map[string]time.Time{},
		ListErrors: map[string]error{},
		StatErrors: map[string]error{},
	}
}

func (m *MemoryAccess) key(root string, objPath string) string {
	return path.Join(root, objPath)
}

func (m *MemoryAccess) ListObjects(root string, prefix string) ([]string, error) {
	if err, ok := m.ListErrors[root]; ok {
		return nil, err
	}

	listRoot := path.Join(root)
	result := []string{}
	for key := range m.Objects {
		rel := key
		if len(listRoot) > 0 && listRoot != "." {
			if !strings.HasPrefix(key, listRoot+"/") {
				continue
			}
			rel = key[len(listRoot)+1:]
		}
		if strings.HasPrefix(rel, prefix) {
			result = append(result, rel)
		}
	}

	// Map iteration order isn't stable, tests need it to be
	sort.Strings(result)
	return result, nil
}

func (m *MemoryAccess) ObjectExists(root string, objPath string) (bool, error) {
	if err, ok := m.StatErrors[m.key(root, objPath)]; ok {
		return false, err
	}
	_, ok := m.Objects[m.key(root, objPath)]
	return ok, nil
}

func (m *MemoryAccess) LastModified(root string, objPath string) (time.Time, error) {
	key := m.key(root, objPath)
	if _, ok := m.Objects[key]; !ok {
		return time.Time{}, errors.Wrap(ErrObjectNotFound, key)
	}
	return m.ModTimes[key], nil
}

func (m *MemoryAccess) ReadObject(root string, objPath string) ([]byte, error) {
	data, ok := m.Objects[m.key(root, objPath)]
	if !ok {
		return nil, errors.Wrap(ErrObjectNotFound, m.key(root, objPath))
	}
	return data, nil
}

func (m *MemoryAccess) WriteObject(root string, objPath string, data []byte) error {
	m.Objects[m.key(root, objPath)] = data
	return nil
}

func (m *MemoryAccess) ReadJSON(root string, objPath string, itemsPtr interface{}) error {
	data, err := m.ReadObject(root, objPath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, itemsPtr)
}

func (m *MemoryAccess) WriteJSON(root string, objPath string, itemsPtr interface{}) error {
	data, err := json.MarshalIndent(itemsPtr, "", "    ")
	if err != nil {
		return err
	}
	return m.WriteObject(root, objPath, data)
}

func (m *MemoryAccess) DeleteObject(root string, objPath string) error {
	key := m.key(root, objPath)
	if _, ok := m.Objects[key]; !ok {
		return fmt.Errorf("delete: %w: %v", ErrObjectNotFound, key)
	}
	delete(m.Objects, key)
	delete(m.ModTimes, key)
	return nil
}

func (m *MemoryAccess) IsNotFoundError(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}
