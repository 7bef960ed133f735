package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/config"
	"github.com/hudeditor/hudstore/internal/infrastructure/database"
	"github.com/hudeditor/hudstore/internal/ports"
)

// fakeS3 keeps objects in a map and answers like S3 does for missing keys.
type fakeS3 struct {
	s3iface.S3API

	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[*in.Bucket+"/"+*in.Key] = body
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	f.mu.Unlock()
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) HeadBucketWithContext(_ aws.Context, in *s3.HeadBucketInput, _ ...request.Option) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestRepositoryImplementations(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*testing.T) ports.DocumentRepository
	}{
		{
			name: "repository backed by a map",
			setup: func(*testing.T) ports.DocumentRepository {
				return NewMemoryRepository()
			},
		},
		{
			name: "repository backed by a host file",
			setup: func(t *testing.T) ports.DocumentRepository {
				return NewFileRepository(filepath.Join(t.TempDir(), "data.json"), 0o600)
			},
		},
		{
			name: "repository backed by bbolt",
			setup: func(t *testing.T) ports.DocumentRepository {
				repo, err := NewBoltRepository(filepath.Join(t.TempDir(), "hudstore.db"), time.Second)
				require.NoError(t, err)
				return repo
			},
		},
		{
			name: "repository backed by sqlite",
			setup: func(t *testing.T) ports.DocumentRepository {
				return newSQLRepository(t, config.DatabaseConfig{
					Driver:       "sqlite3",
					Path:         filepath.Join(t.TempDir(), "hudstore.sqlite"),
					MaxOpenConns: 2,
					MaxIdleConns: 2,
				})
			},
		},
		{
			name: "repository backed by a fake s3",
			setup: func(*testing.T) ports.DocumentRepository {
				return NewS3RepositoryWithClient(newFakeS3(), "hud-editor-data", "data_")
			},
		},
		{
			name: "repository backed by postgres",
			setup: func(t *testing.T) ports.DocumentRepository {
				if os.Getenv("HUDSTORE_TEST_POSTGRES_HOST") == "" {
					t.Skip("HUDSTORE_TEST_POSTGRES_HOST not set")
				}
				return newSQLRepository(t, config.DatabaseConfig{
					Driver:       "postgres",
					Host:         os.Getenv("HUDSTORE_TEST_POSTGRES_HOST"),
					Port:         5432,
					User:         "postgres",
					Password:     os.Getenv("HUDSTORE_TEST_POSTGRES_PASSWORD"),
					Name:         "postgres",
					SSLMode:      "disable",
					MaxOpenConns: 4,
					MaxIdleConns: 2,
				})
			},
		},
		{
			name: "repository backed by redis",
			setup: func(t *testing.T) ports.DocumentRepository {
				if os.Getenv("HUDSTORE_TEST_REDIS_HOST") == "" {
					t.Skip("HUDSTORE_TEST_REDIS_HOST not set")
				}
				repo, err := NewRedisRepository(context.Background(), config.RedisConfig{
					Host:   os.Getenv("HUDSTORE_TEST_REDIS_HOST"),
					Port:   6379,
					Prefix: "hudstore-test:" + time.Now().Format("150405.000000") + ":",
				})
				require.NoError(t, err)
				return repo
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := tc.setup(t)
			t.Cleanup(func() { repo.Close() })
			testRepository(t, repo)
		})
	}
}

func newSQLRepository(t *testing.T, cfg config.DatabaseConfig) *SQLRepository {
	t.Helper()
	db, err := database.New(cfg)
	require.NoError(t, err)
	mg, err := database.NewMigrator(db)
	require.NoError(t, err)
	_, err = mg.Up()
	require.NoError(t, err)
	_, err = db.DB.Exec(`DELETE FROM documents`)
	require.NoError(t, err)
	return NewSQLRepository(db)
}

func testRepository(t *testing.T, repo ports.DocumentRepository) {
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
	t.Run("missing slot is not found", func(t *testing.T) {
		_, err := repo.Load(ctx, entities.Slot("slot999"))
		assert.True(t, errors.Is(err, entities.ErrDocumentNotFound), "got %v", err)
	})
	t.Run("what you save is what you load", func(t *testing.T) {
		before := []byte(`{"layers":[{"id":1,"name":"ＨＵＤ"}],"controlBoxes":[]}`)
		require.NoError(t, repo.Save(ctx, entities.DefaultSlot, before))
		after, err := repo.Load(ctx, entities.DefaultSlot)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, entities.Slot("slot1"), []byte(`{"v":1}`)))
		require.NoError(t, repo.Save(ctx, entities.Slot("slot1"), []byte(`[2]`)))
		after, err := repo.Load(ctx, entities.Slot("slot1"))
		require.NoError(t, err)
		assert.Equal(t, []byte(`[2]`), after)
	})
	t.Run("slots are independent", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, entities.Slot("slot2"), []byte(`"two"`)))
		require.NoError(t, repo.Save(ctx, entities.Slot("slot3"), []byte(`"three"`)))
		two, err := repo.Load(ctx, entities.Slot("slot2"))
		require.NoError(t, err)
		three, err := repo.Load(ctx, entities.Slot("slot3"))
		require.NoError(t, err)
		assert.Equal(t, []byte(`"two"`), two)
		assert.Equal(t, []byte(`"three"`), three)
	})
	t.Run("concurrent saves leave one complete document", func(t *testing.T) {
		docs := [][]byte{[]byte(`{"writer":"a"}`), []byte(`{"writer":"b"}`), []byte(`{"writer":"c"}`)}
		var wg sync.WaitGroup
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func(doc []byte) {
				defer wg.Done()
				assert.NoError(t, repo.Save(ctx, entities.Slot("slot4"), doc))
			}(docs[i%len(docs)])
		}
		wg.Wait()
		after, err := repo.Load(ctx, entities.Slot("slot4"))
		require.NoError(t, err)
		assert.Contains(t, docs, after)
	})
}

func TestFileRepositoryLayout(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "data.json"), 0o600)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entities.DefaultSlot, []byte(`{"x":1}`)))
	require.NoError(t, repo.Save(ctx, entities.Slot("slot7"), []byte(`{"y":2}`)))

	content, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(content), "written verbatim")

	content, err = os.ReadFile(filepath.Join(dir, "data_slot7.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"y":2}`, string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")

	info, err := os.Stat(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileRepositoryCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "data.json")
	repo := NewFileRepository(path, 0)
	require.NoError(t, repo.Save(context.Background(), entities.DefaultSlot, []byte(`{}`)))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileRepositoryFailedWriteKeepsPreviousContent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "data.json"), 0)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, entities.DefaultSlot, []byte(`{"keep":true}`)))

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	err := repo.Save(ctx, entities.DefaultSlot, []byte(`{"keep":false}`))
	assert.Error(t, err)

	content, err := repo.Load(ctx, entities.DefaultSlot)
	require.NoError(t, err)
	assert.Equal(t, `{"keep":true}`, string(content))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, repo := range []ports.DocumentRepository{
		NewMemoryRepository(),
		NewFileRepository(filepath.Join(t.TempDir(), "data.json"), 0),
	} {
		assert.ErrorIs(t, repo.Save(ctx, entities.DefaultSlot, []byte(`{}`)), context.Canceled)
		_, err := repo.Load(ctx, entities.DefaultSlot)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestS3RepositoryKeys(t *testing.T) {
	fake := newFakeS3()
	repo := NewS3RepositoryWithClient(fake, "bucket", "data_")
	require.NoError(t, repo.Save(context.Background(), entities.Slot("slot1"), []byte(`{}`)))
	assert.Contains(t, fake.objects, "bucket/data_slot1.json")
}

func TestMemoryRepositoryCopiesContent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	doc := []byte(`{"a":1}`)
	require.NoError(t, repo.Save(ctx, entities.DefaultSlot, doc))
	doc[2] = 'b'

	after, err := repo.Load(ctx, entities.DefaultSlot)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(after))
}
