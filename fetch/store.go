// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object describes a stored dictionary.
type Object struct {
	// Key is the object's key relative to the store's prefix.
	Key  string
	Size int64
	ETag string
}

// Store is object storage that holds dictionary files.
type Store interface {
	// List returns the objects whose keys start with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Get opens the object with the given key for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
}

// MinioStore is a Store backed by MinIO or another S3 compatible service.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioClient returns a client for endpoint using static credentials.
func NewMinioClient(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client for %q: %w", endpoint, err)
	}
	return client, nil
}

// NewMinioStore returns a store for the objects in bucket under rootPrefix.
func NewMinioStore(client *minio.Client, bucket, rootPrefix string) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *MinioStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// List implements [Store.List].
func (s *MinioStore) List(ctx context.Context, prefix string) ([]Object, error) {
	var objs []Object
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing %s/%s: %w", s.bucket, prefix, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name == "" {
			continue
		}
		objs = append(objs, Object{
			Key:  name,
			Size: obj.Size,
			ETag: obj.ETag,
		})
	}

	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

// Get implements [Store.Get].
func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key(key), minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, Object{}, fmt.Errorf("%w: %s/%s", ErrNotFound, s.bucket, key)
		}
		return nil, Object{}, fmt.Errorf("stat %s/%s: %w", s.bucket, key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, fmt.Errorf("getting %s/%s: %w", s.bucket, key, err)
	}
	return obj, Object{
		Key:  key,
		Size: info.Size,
		ETag: info.ETag,
	}, nil
}
