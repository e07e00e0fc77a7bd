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

// Raster codec access for the image formats microscopy rigs produce. TIFF is
// what the scopes write, PNG/JPEG/BMP turn up from manual exports.
package imgcodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Register decoders for image.Decode/DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageCodec - the codec collaborator the pipeline codes against. A codec
// knows where its images live; the paths passed in are relative to that
// location, matching the root/path split of fileaccess. Dimension probes must
// be cheap header reads, never full decodes, because discovery probes every
// candidate file it finds.
type ImageCodec interface {
	ReadDimensions(path string) (int, int, error)
	ReadPixels(path string) (image.Image, error)
	WritePixels(img image.Image, path string) error
}

// encodeImage - encodes by file extension
func encodeImage(img image.Image, path string, jpegQuality int) ([]byte, error) {
	var b bytes.Buffer
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(&b, img)
	case ".jpg", ".jpeg":
		if jpegQuality == 0 {
			jpegQuality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(&b, img, &jpeg.Options{Quality: jpegQuality})
	case ".tif", ".tiff":
		err = tiff.Encode(&b, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(&b, img)
	default:
		err = fmt.Errorf("unexpected image format for output: %v", path)
	}

	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// FSCodec - reads/writes images on the local file system, under Root (which
// may be empty for paths that are already absolute or cwd-relative)
type FSCodec struct {
	Root        string
	JPEGQuality int // 0 = use jpeg.DefaultQuality
}

// ReadDimensions - header-only probe, doesn't decode pixel data
func (c *FSCodec) ReadDimensions(imgPath string) (int, int, error) {
	f, err := os.Open(filepath.Join(c.Root, imgPath))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header of %v: %w", imgPath, err)
	}

	return cfg.Width, cfg.Height, nil
}

func (c *FSCodec) ReadPixels(imgPath string) (image.Image, error) {
	imgbytes, err := os.ReadFile(filepath.Join(c.Root, imgPath))
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(imgbytes))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// WritePixels - writes via temp+rename so the final composite never exists
// half-written
func (c *FSCodec) WritePixels(img image.Image, imgPath string) error {
	fullPath := filepath.Join(c.Root, imgPath)

	data, err := encodeImage(img, fullPath, c.JPEGQuality)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0777); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".tmp*")
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
