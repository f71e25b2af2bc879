package storage

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/config"
)

const testBucket = "media"

// fakeS3 is a path-style S3 endpoint good enough for GetObject, PutObject
// and ListObjectsV2.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	denyPut bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != testBucket {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch {
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		f.list(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		serveRange(w, r, data)
	case r.Method == http.MethodPut:
		if f.denyPut {
			writeS3Error(w, http.StatusForbidden, "AccessDenied")
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	type content struct {
		Key  string `xml:"Key"`
		Size int    `xml:"Size"`
	}
	type result struct {
		XMLName     xml.Name  `xml:"ListBucketResult"`
		Name        string    `xml:"Name"`
		Prefix      string    `xml:"Prefix"`
		KeyCount    int       `xml:"KeyCount"`
		IsTruncated bool      `xml:"IsTruncated"`
		Contents    []content `xml:"Contents"`
	}

	res := result{Name: testBucket, Prefix: prefix}
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			res.Contents = append(res.Contents, content{Key: k, Size: len(v)})
		}
	}
	sort.Slice(res.Contents, func(i, j int) bool { return res.Contents[i].Key < res.Contents[j].Key })
	res.KeyCount = len(res.Contents)

	w.Header().Set("Content-Type", "application/xml")
	_ = xml.NewEncoder(w).Encode(res)
}

func serveRange(w http.ResponseWriter, r *http.Request, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("ETag", `"etag"`)

	rng := strings.TrimPrefix(r.Header.Get("Range"), "bytes=")
	if rng == "" || len(data) == 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
		return
	}
	startStr, endStr, _ := strings.Cut(rng, "-")
	start, _ := strconv.Atoi(startStr)
	end, err := strconv.Atoi(endStr)
	if err != nil || end >= len(data) {
		end = len(data) - 1
	}
	part := data[start : end+1]
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
	w.Header().Set("Content-Length", strconv.Itoa(len(part)))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = w.Write(part)
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><RequestId>req</RequestId></Error>`, code, code)
}

func newTestClient(t *testing.T, fake *fakeS3) *S3Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cli, err := NewS3Client(context.Background(), config.StorageConfig{
		Bucket:          testBucket,
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	return cli
}

func TestDownloadToFile(t *testing.T) {
	fake := newFakeS3()
	fake.objects["docs/doc.pdf"] = []byte("%PDF-1.4 fake body")
	cli := newTestClient(t, fake)

	path := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, cli.DownloadToFile(context.Background(), "docs/doc.pdf", path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake body", string(got))
}

func TestDownloadToFile_NotFound(t *testing.T) {
	cli := newTestClient(t, newFakeS3())

	err := cli.DownloadToFile(context.Background(), "missing.pdf", filepath.Join(t.TempDir(), "in.pdf"))

	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Object not found: s3://media/missing.pdf", nf.Error())
}

func TestDownloadToFile_WrongBucketIsStorageError(t *testing.T) {
	fake := newFakeS3()
	cli := newTestClient(t, fake)
	cli.bucketName = "other"

	err := cli.DownloadToFile(context.Background(), "doc.pdf", filepath.Join(t.TempDir(), "in.pdf"))

	assert.True(t, apperr.IsStorage(err))
}

func TestPutAndList(t *testing.T) {
	fake := newFakeS3()
	cli := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, cli.Put(ctx, "out/page-1.webp", []byte("RIFF"), "image/webp"))
	require.NoError(t, cli.Put(ctx, "out/manifest.json", []byte(`{"page_count":1,"format":"webp"}`), "application/json"))
	require.NoError(t, cli.Put(ctx, "other/page-1.webp", []byte("RIFF"), "image/webp"))

	assert.Equal(t, []byte("RIFF"), fake.objects["out/page-1.webp"])
	assert.Equal(t, "image/webp", fake.types["out/page-1.webp"])
	assert.Equal(t, "application/json", fake.types["out/manifest.json"])

	keys, err := cli.ListKeys(ctx, "out/")
	require.NoError(t, err)
	assert.Equal(t, []string{"out/manifest.json", "out/page-1.webp"}, keys)
}

func TestPut_Denied(t *testing.T) {
	fake := newFakeS3()
	fake.denyPut = true
	cli := newTestClient(t, fake)

	err := cli.Put(context.Background(), "out/page-1.webp", []byte("x"), "image/webp")

	var se *apperr.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upload", se.Op)
	assert.Equal(t, "out/page-1.webp", se.Key)
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsNotFound(&s3types.NoSuchKey{}))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", &s3types.NotFound{})))
	assert.True(t, IsNotFound(&smithy.GenericAPIError{Code: "404"}))
	assert.False(t, IsNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, IsNotFound(&smithy.GenericAPIError{Code: "NoSuchBucket"}))
}
