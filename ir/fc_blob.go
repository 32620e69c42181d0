// Copyright 2024-2026 The Tracemux Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"github.com/tracemux/tracemux/internal/debug"
)

// DefaultBlobMediaType is the IANA media type of BLOB field classes which
// were not given one.
const DefaultBlobMediaType = "application/octet-stream"

// blobFieldClass is the state shared by the BLOB field classes.
type blobFieldClass struct {
	fieldClassBase

	mediaType string
}

// MediaType returns the IANA media type of the field's bytes.
func (fc *blobFieldClass) MediaType() string { return fc.mediaType }

// SetMediaType sets the IANA media type of the field's bytes.
func (fc *blobFieldClass) SetMediaType(mediaType string) {
	fc.checkMutable("set media type")
	fc.mediaType = mediaType
}

// StaticBlobFieldClass describes a field holding a fixed number of raw
// bytes. MIP ≥ 1 only.
type StaticBlobFieldClass struct {
	blobFieldClass

	length uint64
}

// NewStaticBlobFieldClass creates a static BLOB field class of length
// bytes. MIP ≥ 1 only.
func (tc *TraceClass) NewStaticBlobFieldClass(length uint64) *StaticBlobFieldClass {
	debug.Assert(tc.mip >= 1, "BLOB field classes require MIP >= 1")
	return &StaticBlobFieldClass{
		blobFieldClass: blobFieldClass{
			fieldClassBase: tc.newFieldClassBase(FieldClassTypeStaticBlob),
			mediaType:      DefaultBlobMediaType,
		},
		length: length,
	}
}

// Length returns the number of bytes in the BLOB.
func (fc *StaticBlobFieldClass) Length() uint64 { return fc.length }

// DynamicBlobFieldClass describes a field holding a variable number of raw
// bytes. MIP ≥ 1 only.
//
// The length either comes with the field data itself (no link) or is read
// from an anterior unsigned integer field designated by a field location.
type DynamicBlobFieldClass struct {
	blobFieldClass
	fieldLink
}

// NewDynamicBlobFieldClass creates a dynamic BLOB field class without a
// length link: each field records its own length. MIP ≥ 1 only.
func (tc *TraceClass) NewDynamicBlobFieldClass() *DynamicBlobFieldClass {
	debug.Assert(tc.mip >= 1, "BLOB field classes require MIP >= 1")
	return &DynamicBlobFieldClass{
		blobFieldClass: blobFieldClass{
			fieldClassBase: tc.newFieldClassBase(FieldClassTypeDynamicBlob),
			mediaType:      DefaultBlobMediaType,
		},
	}
}

// NewDynamicBlobFieldClassWithLengthFieldLocation creates a dynamic BLOB
// field class whose length is read from the anterior field designated by
// location. MIP ≥ 1 only.
func (tc *TraceClass) NewDynamicBlobFieldClassWithLengthFieldLocation(location *FieldLocation) *DynamicBlobFieldClass {
	debug.Assert(tc.mip >= 1, "BLOB field classes require MIP >= 1")
	fc := &DynamicBlobFieldClass{
		blobFieldClass: blobFieldClass{
			fieldClassBase: tc.newFieldClassBase(FieldClassTypeDynamicBlobWithLengthField),
			mediaType:      DefaultBlobMediaType,
		},
	}
	fc.location = location
	return fc
}

// LengthFieldLocation returns the field location of the length field, or
// nil when the class has no length link.
func (fc *DynamicBlobFieldClass) LengthFieldLocation() *FieldLocation { return fc.location }
