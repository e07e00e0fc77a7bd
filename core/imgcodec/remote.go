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
	"bytes"
	"fmt"
	"image"

	"github.com/nsew-imaging/chipstitch/core/fileaccess"
)

// RemoteCodec - images kept behind a FileAccess (S3 bucket, typically).
// Root is the FileAccess root the images live under; it must match the root
// the rest of the pipeline runs with. Dimension probes fetch the whole object
// since object stores have no cheap header read, but still only decode the
// header from it.
type RemoteCodec struct {
	FS          fileaccess.FileAccess
	Root        string
	JPEGQuality int // 0 = use jpeg.DefaultQuality
}

func (c *RemoteCodec) ReadDimensions(imgPath string) (int, int, error) {
	data, err := c.FS.ReadObject(c.Root, imgPath)
	if err != nil {
		return 0, 0, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header of %v: %w", imgPath, err)
	}

	return cfg.Width, cfg.Height, nil
}

func (c *RemoteCodec) ReadPixels(imgPath string) (image.Image, error) {
	data, err := c.FS.ReadObject(c.Root, imgPath)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (c *RemoteCodec) WritePixels(img image.Image, imgPath string) error {
	data, err := encodeImage(img, imgPath, c.JPEGQuality)
	if err != nil {
		return err
	}
	return c.FS.WriteObject(c.Root, imgPath, data)
}
