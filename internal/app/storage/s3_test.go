package storage

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	body        []byte
	contentType string
	acl         string
}

// fakeS3 is a path-style S3 endpoint holding objects in memory.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]fakeObject // "bucket/key"
	pageSize int
	denied   map[string]bool // "METHOD bucket/key" answered with AccessDenied
	requests []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}, pageSize: 1000, denied: map[string]bool{}}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/")
	bucket, key, _ := strings.Cut(path, "/")

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+path)
	if f.denied[r.Method+" "+path] {
		writeS3Error(w, http.StatusForbidden, "AccessDenied")
		return
	}

	switch {
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		f.list(w, r, bucket)

	case r.Method == http.MethodPut && r.Header.Get("X-Amz-Copy-Source") != "":
		src, err := url.PathUnescape(r.Header.Get("X-Amz-Copy-Source"))
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "InvalidArgument")
			return
		}
		src = strings.TrimPrefix(src, "/")
		if src == path {
			writeS3Error(w, http.StatusBadRequest, "InvalidRequest")
			return
		}
		obj, ok := f.objects[src]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		f.objects[path] = obj
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult><ETag>"etag"</ETag><LastModified>2024-01-02T03:04:05.000Z</LastModified></CopyObjectResult>`)

	case r.Method == http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		f.objects[path] = fakeObject{
			body:        body,
			contentType: r.Header.Get("Content-Type"),
			acl:         r.Header.Get("X-Amz-Acl"),
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented")
	}
}

type listContents struct {
	Key  string `xml:"Key"`
	Size int64  `xml:"Size"`
}

type listResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	Name                  string         `xml:"Name"`
	KeyCount              int            `xml:"KeyCount"`
	IsTruncated           bool           `xml:"IsTruncated"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	Contents              []listContents `xml:"Contents"`
}

func (f *fakeS3) list(w http.ResponseWriter, r *http.Request, bucket string) {
	var keys []string
	for id := range f.objects {
		if b, k, _ := strings.Cut(id, "/"); b == bucket {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := r.URL.Query().Get("continuation-token"); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	end := min(start+f.pageSize, len(keys))

	res := listResult{Name: bucket}
	for _, k := range keys[start:end] {
		res.Contents = append(res.Contents, listContents{Key: k, Size: int64(len(f.objects[bucket+"/"+k].body))})
	}
	res.KeyCount = len(res.Contents)
	if end < len(keys) {
		res.IsTruncated = true
		res.NextContinuationToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/xml")
	_ = xml.NewEncoder(w).Encode(res)
}

func newTestClient(t *testing.T, fake *fakeS3) (*s3Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := newS3Client(ctx, ServiceConfig{
		S3Region:          "us-east-1",
		S3Endpoint:        server.URL,
		S3AccessKeyID:     "test-access-key",
		S3SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)
	return client, server
}

func TestNewStorageService_Drivers(t *testing.T) {
	ctx := context.Background()

	mem, err := NewStorageService(ctx, ServiceConfig{Driver: DriverMemory, S3Endpoint: "http://localhost/objects"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, mem)

	s3b, err := NewStorageService(ctx, ServiceConfig{S3Region: "us-east-1"})
	require.NoError(t, err)
	assert.IsType(t, &s3Client{}, s3b)

	_, err = NewStorageService(ctx, ServiceConfig{Driver: "ftp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestNewS3Client_RequiresRegion(t *testing.T) {
	_, err := newS3Client(context.Background(), ServiceConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region is required")
}

func TestS3Client_PutSetsContentTypeAndACL(t *testing.T) {
	fake := newFakeS3()
	client, _ := newTestClient(t, fake)

	err := client.Put(context.Background(), PutInput{
		Bucket:      "test-bucket",
		Key:         "a.png",
		Body:        strings.NewReader("png-bytes"),
		ContentType: "image/png",
		Visibility:  VisibilityPublicRead,
	})
	require.NoError(t, err)

	obj, ok := fake.objects["test-bucket/a.png"]
	require.True(t, ok)
	assert.Contains(t, string(obj.body), "png-bytes")
	assert.Equal(t, "image/png", obj.contentType)
	assert.Equal(t, "public-read", obj.acl)
}

func TestS3Client_PutPropagatesBackendError(t *testing.T) {
	fake := newFakeS3()
	fake.denied["PUT test-bucket/a.png"] = true
	client, _ := newTestClient(t, fake)

	err := client.Put(context.Background(), PutInput{
		Bucket: "test-bucket",
		Key:    "a.png",
		Body:   strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestS3Client_ListFollowsPages(t *testing.T) {
	fake := newFakeS3()
	fake.pageSize = 2
	for _, k := range []string{"e.txt", "a.png", "c.gif", "b.txt", "d.jpg"} {
		fake.objects["test-bucket/"+k] = fakeObject{body: []byte(k)}
	}
	fake.objects["other-bucket/z.txt"] = fakeObject{}
	client, _ := newTestClient(t, fake)

	objects, err := client.List(context.Background(), "test-bucket")
	require.NoError(t, err)

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"a.png", "b.txt", "c.gif", "d.jpg", "e.txt"}, keys)
	assert.Equal(t, int64(5), objects[0].Size)

	var listCalls int
	for _, r := range fake.requests {
		if r == "GET test-bucket" {
			listCalls++
		}
	}
	assert.Equal(t, 3, listCalls)
}

func TestS3Client_ListEmptyBucket(t *testing.T) {
	client, _ := newTestClient(t, newFakeS3())

	objects, err := client.List(context.Background(), "empty")
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.NotNil(t, objects)
}

func TestS3Client_Delete(t *testing.T) {
	fake := newFakeS3()
	fake.objects["test-bucket/a.png"] = fakeObject{}
	client, _ := newTestClient(t, fake)

	require.NoError(t, client.Delete(context.Background(), "test-bucket", "a.png"))
	_, ok := fake.objects["test-bucket/a.png"]
	assert.False(t, ok)

	fake.denied["DELETE test-bucket/b.png"] = true
	err := client.Delete(context.Background(), "test-bucket", "b.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete test-bucket/b.png")
}

func TestS3Client_CopyKeepsSource(t *testing.T) {
	fake := newFakeS3()
	fake.objects["src/a.png"] = fakeObject{body: []byte("img"), contentType: "image/png"}
	client, _ := newTestClient(t, fake)

	require.NoError(t, client.Copy(context.Background(), "src", "a.png", "dst", "copies/a.png"))

	assert.Contains(t, fake.objects, "src/a.png")
	copied, ok := fake.objects["dst/copies/a.png"]
	require.True(t, ok)
	assert.Equal(t, "image/png", copied.contentType)
	assert.Equal(t, []byte("img"), copied.body)
}

func TestS3Client_CopyMissingSourceIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, newFakeS3())

	err := client.Copy(context.Background(), "src", "missing.png", "dst", "x.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Client_CopyOntoItselfIsInvalidRequest(t *testing.T) {
	fake := newFakeS3()
	fake.objects["src/a.png"] = fakeObject{body: []byte("img"), contentType: "image/png"}
	client, _ := newTestClient(t, fake)

	err := client.Copy(context.Background(), "src", "a.png", "src", "a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, fake.objects, "src/a.png")
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServiceConfig
		key  string
		want string
	}{
		{
			name: "aws virtual hosted",
			cfg:  ServiceConfig{S3Region: "ap-northeast-2"},
			key:  "3f0c.png",
			want: "https://media.s3.ap-northeast-2.amazonaws.com/3f0c.png",
		},
		{
			name: "custom endpoint path style",
			cfg:  ServiceConfig{S3Endpoint: "http://localhost:9000/"},
			key:  "dir/a b.txt",
			want: "http://localhost:9000/media/dir/a%20b.txt",
		},
		{
			name: "empty key yields prefix",
			cfg:  ServiceConfig{S3Region: "us-east-1"},
			key:  "",
			want: "https://media.s3.us-east-1.amazonaws.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := objectURL(tt.cfg, "media", tt.key)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, objectURL(tt.cfg, "media", tt.key))
		})
	}
}
