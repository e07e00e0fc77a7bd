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
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Implementation of file access using the local file system
type FSAccess struct {
}

func (fs *FSAccess) ListObjects(rootPath string, prefix string) ([]string, error) {
	result := []string{}

	rootOnly := path.Join(rootPath) // path.Join cleans off ./ for example, so it matches fullPath below
	fullPath := fs.filePath(rootPath, prefix)

	err := filepath.Walk(fullPath, func(pathFound string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			// Paths found contain the root directory, chop it off
			toSave := pathFound
			if len(rootOnly) > 0 && strings.HasPrefix(toSave, rootOnly+"/") {
				toSave = toSave[len(rootOnly)+1:]
			}
			result = append(result, toSave)
		}
		return nil
	})

	return result, err
}

func (fs *FSAccess) ObjectExists(rootPath string, objPath string) (bool, error) {
	fullPath := fs.filePath(rootPath, objPath)

	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fs *FSAccess) LastModified(rootPath string, objPath string) (time.Time, error) {
	info, err := os.Stat(fs.filePath(rootPath, objPath))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (fs *FSAccess) ReadObject(rootPath string, objPath string) ([]byte, error) {
	fullPath := fs.filePath(rootPath, objPath)
	return os.ReadFile(fullPath)
}

func (fs *FSAccess) WriteObject(rootPath string, objPath string, data []byte) error {
	fullPath := fs.filePath(rootPath, objPath)

	// Ensure any subdirs in between are created
	createPath := filepath.Dir(fullPath)
	err := os.MkdirAll(createPath, 0777)
	if err != nil {
		return err
	}

	// Write to a temp file in the same directory, then rename over the target.
	// A crash mid-write must never leave a half-written object readable at
	// the destination path.
	tmp, err := os.CreateTemp(createPath, "."+filepath.Base(fullPath)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (fs *FSAccess) ReadJSON(rootPath string, objPath string, itemsPtr interface{}) error {
	fileData, err := fs.ReadObject(rootPath, objPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (fs *FSAccess) WriteJSON(rootPath string, objPath string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", "    ")
	if err != nil {
		return err
	}

	return fs.WriteObject(rootPath, objPath, fileData)
}

func (fs *FSAccess) DeleteObject(rootPath string, objPath string) error {
	fullPath := fs.filePath(rootPath, objPath)
	return os.Remove(fullPath)
}

func (fs *FSAccess) IsNotFoundError(err error) bool {
	return os.IsNotExist(err)
}

func (fs *FSAccess) filePath(rootPath string, filePath string) string {
	return path.Join(rootPath, filePath)
}
