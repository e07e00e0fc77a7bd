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

package awsutil

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// MockS3Client - strict record/replay S3 mock. Each Exp list holds the
// requests a test expects, in order; each Queued list holds the response
// replayed for the matching request. A nil queued response turns into the
// not-found error the real service would return for that call. Call
// FinishTest at the end of the test (defer it) to check every expected call
// actually happened and nothing unexpected was made.
type MockS3Client struct {
	mutex sync.Mutex

	s3iface.S3API

	ExpListObjectsV2Input []s3.ListObjectsV2Input
	ExpHeadObjectInput    []s3.HeadObjectInput
	ExpGetObjectInput     []s3.GetObjectInput
	ExpPutObjectInput     []s3.PutObjectInput
	ExpDeleteObjectInput  []s3.DeleteObjectInput

	QueuedListObjectsV2Output []*s3.ListObjectsV2Output
	QueuedHeadObjectOutput    []*s3.HeadObjectOutput
	QueuedGetObjectOutput     []*s3.GetObjectOutput
	QueuedPutObjectOutput     []*s3.PutObjectOutput
	QueuedDeleteObjectOutput  []*s3.DeleteObjectOutput
}

func (m *MockS3Client) FinishTest() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var err error
	if len(m.ExpListObjectsV2Input)+len(m.ExpHeadObjectInput)+len(m.ExpGetObjectInput)+len(m.ExpPutObjectInput)+len(m.ExpDeleteObjectInput) > 0 {
		err = errors.New("test expected more S3 requests than were made")
	} else if len(m.QueuedListObjectsV2Output)+len(m.QueuedHeadObjectOutput)+len(m.QueuedGetObjectOutput)+len(m.QueuedPutObjectOutput)+len(m.QueuedDeleteObjectOutput) > 0 {
		err = errors.New("test queued more S3 responses than were consumed")
	}

	// Example tests only see stdout, print as well as return
	if err != nil {
		fmt.Println(err)
	}
	return err
}

func (m *MockS3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.ExpListObjectsV2Input) <= 0 {
		return nil, fmt.Errorf("unexpected ListObjectsV2 call: %v", input.String())
	}
	exp := m.ExpListObjectsV2Input[0].String()
	m.ExpListObjectsV2Input = m.ExpListObjectsV2Input[1:]

	if exp != input.String() {
		return nil, fmt.Errorf("wrong ListObjectsV2 input\nexpected: %v\nreceived: %v", exp, input.String())
	}

	if len(m.QueuedListObjectsV2Output) <= 0 {
		return nil, errors.New("no queued ListObjectsV2 response")
	}
	result := m.QueuedListObjectsV2Output[0]
	m.QueuedListObjectsV2Output = m.QueuedListObjectsV2Output[1:]

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "mock bucket listing failed", nil)
	}
	return result, nil
}

func (m *MockS3Client) HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.ExpHeadObjectInput) <= 0 {
		return nil, fmt.Errorf("unexpected HeadObject call: %v", input.String())
	}
	exp := m.ExpHeadObjectInput[0].String()
	m.ExpHeadObjectInput = m.ExpHeadObjectInput[1:]

	if exp != input.String() {
		return nil, fmt.Errorf("wrong HeadObject input\nexpected: %v\nreceived: %v", exp, input.String())
	}

	if len(m.QueuedHeadObjectOutput) <= 0 {
		return nil, errors.New("no queued HeadObject response")
	}
	result := m.QueuedHeadObjectOutput[0]
	m.QueuedHeadObjectOutput = m.QueuedHeadObjectOutput[1:]

	if result == nil {
		// HeadObject reports a missing key with the bare NotFound code, not
		// NoSuchKey like GetObject does
		return nil, awserr.New("NotFound", "mock object not found", nil)
	}
	return result, nil
}

func (m *MockS3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.ExpGetObjectInput) <= 0 {
		return nil, fmt.Errorf("unexpected GetObject call: %v", input.String())
	}
	exp := m.ExpGetObjectInput[0].String()
	m.ExpGetObjectInput = m.ExpGetObjectInput[1:]

	if exp != input.String() {
		return nil, fmt.Errorf("wrong GetObject input\nexpected: %v\nreceived: %v", exp, input.String())
	}

	if len(m.QueuedGetObjectOutput) <= 0 {
		return nil, errors.New("no queued GetObject response")
	}
	result := m.QueuedGetObjectOutput[0]
	m.QueuedGetObjectOutput = m.QueuedGetObjectOutput[1:]

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "mock object not found", nil)
	}
	return result, nil
}

func readAllString(r io.Reader) string {
	if r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "READ ERROR"
	}
	return string(data)
}

// PutObject - the input's String() prints the body reader's pointer, not its
// bytes, so bucket, key and body are compared separately
func (m *MockS3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.ExpPutObjectInput) <= 0 {
		return nil, fmt.Errorf("unexpected PutObject call: %v", input.String())
	}
	exp := m.ExpPutObjectInput[0]
	m.ExpPutObjectInput = m.ExpPutObjectInput[1:]

	if *input.Bucket != *exp.Bucket || *input.Key != *exp.Key {
		return nil, fmt.Errorf("wrong PutObject target\nexpected: %v/%v\nreceived: %v/%v", *exp.Bucket, *exp.Key, *input.Bucket, *input.Key)
	}

	expBody := readAllString(exp.Body)
	gotBody := readAllString(input.Body)
	if expBody != gotBody {
		return nil, fmt.Errorf("wrong PutObject body for %v\nexpected: %v\nreceived: %v", *input.Key, expBody, gotBody)
	}

	if len(m.QueuedPutObjectOutput) <= 0 {
		return nil, errors.New("no queued PutObject response")
	}
	result := m.QueuedPutObjectOutput[0]
	m.QueuedPutObjectOutput = m.QueuedPutObjectOutput[1:]

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "mock put failed", nil)
	}
	return result, nil
}

func (m *MockS3Client) DeleteObject(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.ExpDeleteObjectInput) <= 0 {
		return nil, fmt.Errorf("unexpected DeleteObject call: %v", input.String())
	}
	exp := m.ExpDeleteObjectInput[0].String()
	m.ExpDeleteObjectInput = m.ExpDeleteObjectInput[1:]

	if exp != input.String() {
		return nil, fmt.Errorf("wrong DeleteObject input\nexpected: %v\nreceived: %v", exp, input.String())
	}

	if len(m.QueuedDeleteObjectOutput) <= 0 {
		return nil, errors.New("no queued DeleteObject response")
	}
	result := m.QueuedDeleteObjectOutput[0]
	m.QueuedDeleteObjectOutput = m.QueuedDeleteObjectOutput[1:]

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "mock delete failed", nil)
	}
	return result, nil
}
