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

package imgcodec

import (
	"image"
	"os"

	"github.com/pkg/errors"
)

var ErrUndecodable = errors.New("image data could not be decoded")

// MemCodec - in-memory codec for unit tests. Paths listed in Corrupt exist
// but fail to decode, like a truncated file on disk would.
type MemCodec struct {
	Images  map[string]image.Image
	Written map[string]image.Image
	Corrupt map[string]bool
}

func MakeMemCodec() *MemCodec {
	return &MemCodec{
		Images:  map[string]image.Image{},
		Written: map[string]image.Image{},
		Corrupt: map[string]bool{},
	}
}

func (c *MemCodec) ReadDimensions(path string) (int, int, error) {
	if c.Corrupt[path] {
		return 0, 0, errors.Wrap(ErrUndecodable, path)
	}
	img, ok := c.Images[path]
	if !ok {
		return 0, 0, os.ErrNotExist
	}
	return img.Bounds().Dx(), img.Bounds().Dy(), nil
}

func (c *MemCodec) ReadPixels(path string) (image.Image, error) {
	if c.Corrupt[path] {
		return nil, errors.Wrap(ErrUndecodable, path)
	}
	img, ok := c.Images[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return img, nil
}

func (c *MemCodec) WritePixels(img image.Image, path string) error {
	c.Written[path] = img
	return nil
}
