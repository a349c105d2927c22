package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/and161185/cardvault/internal/model"
)

func TestPaths(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.FromString("7f1d2c3b-0000-4000-8000-000000000001"))
	at := time.UnixMilli(1700000000123)

	require.Regexp(t, `^cards/7f1d2c3b-0000-4000-8000-000000000001/1700000000123-[0-9a-f]{8}-front\.png$`, CardImagePath(owner, at, "front.png"))
	require.Regexp(t, `^profiles/7f1d2c3b-0000-4000-8000-000000000001/1700000000123-[0-9a-f]{8}-me\.jpg$`, ProfilePhotoPath(owner, at, "me.jpg"))

	// same owner, instant and name still yield distinct keys
	require.NotEqual(t, CardImagePath(owner, at, "image.jpg"), CardImagePath(owner, at, "image.jpg"))
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "passwd", SafeName("../../etc/passwd"))
	require.Equal(t, "photo.jpg", SafeName(`C:\Users\ada\photo.jpg`))
	require.Equal(t, "my_card__1_.png", SafeName("my card (1).png"))
	require.Equal(t, "upload", SafeName(""))
	require.Equal(t, "upload", SafeName(".."))
	require.Equal(t, "env", SafeName(".env"))
}

func TestLocal_Put(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l, err := NewLocal(root, "http://localhost:8080/")
	require.NoError(t, err)

	body := []byte("png-bytes")
	u, err := l.Put(context.Background(), "cards/o/1-front.png", model.Upload{Body: bytes.NewReader(body), Size: int64(len(body))})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/objects/cards/o/1-front.png", u)

	got, err := os.ReadFile(filepath.Join(root, "cards", "o", "1-front.png"))
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestLocal_Put_Rejects(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(t.TempDir(), "http://h")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Put(ctx, "../outside", model.Upload{Body: strings.NewReader("x"), Size: -1})
	require.Error(t, err)

	_, err = l.Put(ctx, "cards/a", model.Upload{Body: strings.NewReader("x"), Size: 10})
	require.ErrorContains(t, err, "short upload")
}

type fakeS3 struct {
	exists  bool
	made    string
	putKey  string
	putCT   string
	putBody []byte
	putErr  error
	presign string
}

func (f *fakeS3) BucketExists(context.Context, string) (bool, error) { return f.exists, nil }
func (f *fakeS3) MakeBucket(_ context.Context, b string, _ minio.MakeBucketOptions) error {
	f.made = b
	return nil
}
func (f *fakeS3) PutObject(_ context.Context, _, obj string, r io.Reader, _ int64, o minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.putKey, f.putCT = obj, o.ContentType
	f.putBody, _ = io.ReadAll(r)
	return minio.UploadInfo{Key: obj}, nil
}
func (f *fakeS3) PresignedGetObject(_ context.Context, b, obj string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse(f.presign + "/" + b + "/" + obj + "?X-Amz-Signature=sig")
}

var _ s3API = (*fakeS3)(nil)

func TestS3_EnsureBucket(t *testing.T) {
	t.Parallel()

	f := &fakeS3{}
	s := &S3{api: f, bucket: "cards"}
	require.NoError(t, s.ensureBucket(context.Background(), "us-east-1"))
	require.Equal(t, "cards", f.made)

	f2 := &fakeS3{exists: true}
	s2 := &S3{api: f2, bucket: "cards"}
	require.NoError(t, s2.ensureBucket(context.Background(), ""))
	require.Empty(t, f2.made)
}

func TestS3_Put_PresignedAndPublic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := &fakeS3{presign: "https://s3.local"}
	s := &S3{api: f, bucket: "vault"}
	u, err := s.Put(ctx, "cards/o/1-a.png", model.Upload{Body: strings.NewReader("abc"), Size: 3})
	require.NoError(t, err)
	require.Equal(t, "https://s3.local/vault/cards/o/1-a.png?X-Amz-Signature=sig", u)
	require.Equal(t, "application/octet-stream", f.putCT)
	require.Equal(t, []byte("abc"), f.putBody)

	pub := &S3{api: &fakeS3{}, bucket: "vault", publicBase: "https://cdn.example"}
	u, err = pub.Put(ctx, "profiles/o/2-me.jpg", model.Upload{Body: strings.NewReader("x"), Size: 1, ContentType: "image/jpeg"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/vault/profiles/o/2-me.jpg", u)
}

func TestS3_Put_Error(t *testing.T) {
	t.Parallel()

	s := &S3{api: &fakeS3{putErr: errors.New("access denied")}, bucket: "b"}
	_, err := s.Put(context.Background(), "k", model.Upload{Body: strings.NewReader("x"), Size: 1})
	require.EqualError(t, err, "access denied")
}
