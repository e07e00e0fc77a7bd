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

// The closed set of spatial region tags used by MEA plate scans. A scan is
// acquired as 4 quadrant images, and every sidecar record, chip file name and
// provenance entry is keyed by one of these tags.
package quadrant

import "strings"

type Quadrant string

const (
	NE Quadrant = "NE"
	NW Quadrant = "NW"
	SE Quadrant = "SE"
	SW Quadrant = "SW"
)

// All - in the fixed 2x2 reading order (top row left-to-right, then bottom).
// Anything that needs a stable iteration order over quadrants uses this.
func All() []Quadrant {
	return []Quadrant{NW, NE, SW, SE}
}

func IsValid(tag string) bool {
	q := Quadrant(tag)
	return q == NE || q == NW || q == SE || q == SW
}

func (q Quadrant) Label() string {
	switch q {
	case NE:
		return "North-East"
	case NW:
		return "North-West"
	case SE:
		return "South-East"
	case SW:
		return "South-West"
	}
	return "Unknown"
}

// GridPosition - (row, col) in the 2x2 layout:
//
//	[0,0] NW | [0,1] NE
//	---------|---------
//	[1,0] SW | [1,1] SE
func (q Quadrant) GridPosition() (int, int) {
	switch q {
	case NW:
		return 0, 0
	case NE:
		return 0, 1
	case SW:
		return 1, 0
	case SE:
		return 1, 1
	}
	return -1, -1
}

// FromKeyword - parses loose spatial keywords the way users name files, eg
// "NE", "northeast", "top_right". Returns false for anything ambiguous
// ("north" could be NE or NW) or unrecognised.
func FromKeyword(keyword string) (Quadrant, bool) {
	clean := strings.ToUpper(keyword)
	clean = strings.ReplaceAll(clean, "_", "")
	clean = strings.ReplaceAll(clean, "-", "")

	switch clean {
	case "NE", "NORTHEAST", "TOPRIGHT", "RIGHTTOP":
		return NE, true
	case "NW", "NORTHWEST", "TOPLEFT", "LEFTTOP":
		return NW, true
	case "SE", "SOUTHEAST", "BOTTOMRIGHT", "RIGHTBOTTOM":
		return SE, true
	case "SW", "SOUTHWEST", "BOTTOMLEFT", "LEFTBOTTOM":
		return SW, true
	}

	return "", false
}

// SplitStem - splits a file name stem into (prefix, tag) where the stem ends
// with one of the quadrant tags, eg "plate03NE" -> ("plate03", NE). Returns
// false if the stem doesn't end in a recognised tag.
func SplitStem(stem string) (string, Quadrant, bool) {
	for _, q := range All() {
		if strings.HasSuffix(stem, string(q)) {
			return stem[:len(stem)-len(q)], q, true
		}
	}
	return "", "", false
}
