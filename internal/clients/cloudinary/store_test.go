package cloudinary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"note-keeper/internal/config"
	"note-keeper/internal/services/media"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testConfig = config.Config{
	CloudinaryCloudName:   "demo",
	CloudinaryImageFolder: "Notes-app-images",
	CloudinaryAudioFolder: "Notes-app-audio",
	MediaRatePerSec:       100,
	MediaBurst:            100,
	MediaTimeoutSec:       5,
}

type fakeAPI struct {
	mu        sync.Mutex
	uploads   []uploader.UploadParams
	destroys  []uploader.DestroyParams
	uploadErr error
	result    string
	apiErr    string
}

func (f *fakeAPI) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, params)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if _, ok := file.(io.Reader); !ok {
		return nil, errors.New("expected a reader")
	}
	res := &uploader.UploadResult{
		PublicID:  params.PublicID,
		SecureURL: "https://res.cloudinary.com/demo/" + params.ResourceType + "/upload/v1/" + params.PublicID + ".bin",
	}
	res.Error = api.ErrorResp{Message: f.apiErr}
	return res, nil
}

func (f *fakeAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys = append(f.destroys, params)
	return &uploader.DestroyResult{Result: f.result, Error: api.ErrorResp{Message: f.apiErr}}, nil
}

func TestStorePut(t *testing.T) {
	fake := &fakeAPI{}
	store := newStore(fake, testConfig, silentLogger)
	owner := bson.NewObjectID()

	imgURL, err := store.Put(context.Background(), media.Object{Kind: media.KindImage, OwnerID: owner, Data: []byte("x")})
	require.NoError(t, err)
	audioURL, err := store.Put(context.Background(), media.Object{Kind: media.KindAudio, OwnerID: owner, Data: []byte("y")})
	require.NoError(t, err)

	require.Len(t, fake.uploads, 2)
	assert.Equal(t, "image", fake.uploads[0].ResourceType)
	assert.True(t, strings.HasPrefix(fake.uploads[0].PublicID, "Notes-app-images/"+owner.Hex()+"/"))
	assert.Equal(t, "video", fake.uploads[1].ResourceType)
	assert.True(t, strings.HasPrefix(fake.uploads[1].PublicID, "Notes-app-audio/"+owner.Hex()+"/"))
	assert.NotEqual(t, fake.uploads[0].PublicID, fake.uploads[1].PublicID)

	assert.Contains(t, imgURL, "/image/upload/")
	assert.Contains(t, audioURL, "/video/upload/")
}

func TestStorePutErrors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		store := newStore(&fakeAPI{uploadErr: errors.New("boom")}, testConfig, silentLogger)
		_, err := store.Put(context.Background(), media.Object{Kind: media.KindImage})
		assert.ErrorContains(t, err, "boom")
	})
	t.Run("api error body", func(t *testing.T) {
		store := newStore(&fakeAPI{apiErr: "Invalid image file"}, testConfig, silentLogger)
		_, err := store.Put(context.Background(), media.Object{Kind: media.KindImage})
		assert.ErrorContains(t, err, "Invalid image file")
	})
}

func TestStoreDelete(t *testing.T) {
	owner := bson.NewObjectID()
	other := bson.NewObjectID()
	imagePath := "Notes-app-images/" + owner.Hex() + "/01J"
	audioPath := "Notes-app-audio/" + owner.Hex() + "/01J"

	tests := []struct {
		name    string
		url     string
		result  string
		wantErr bool
		wantReq *uploader.DestroyParams
	}{
		{
			name:    "image ok",
			url:     "https://res.cloudinary.com/demo/image/upload/v1/" + imagePath + ".png",
			result:  "ok",
			wantReq: &uploader.DestroyParams{PublicID: imagePath, ResourceType: "image"},
		},
		{
			name:    "audio already gone",
			url:     "https://res.cloudinary.com/demo/video/upload/v1/" + audioPath + ".mp3",
			result:  "not found",
			wantReq: &uploader.DestroyParams{PublicID: audioPath, ResourceType: "video"},
		},
		{
			name:    "unexpected result",
			url:     "https://res.cloudinary.com/demo/image/upload/v1/" + imagePath + ".png",
			result:  "error",
			wantErr: true,
			wantReq: &uploader.DestroyParams{PublicID: imagePath, ResourceType: "image"},
		},
		{
			name: "asset of another owner is skipped",
			url:  "https://res.cloudinary.com/demo/image/upload/v1/Notes-app-images/" + other.Hex() + "/01J.png",
		},
		{
			name: "audio path under the image folder is skipped",
			url:  "https://res.cloudinary.com/demo/video/upload/v1/" + imagePath + ".mp3",
		},
		{
			name: "unscoped public id is skipped",
			url:  "https://res.cloudinary.com/demo/image/upload/v1/Notes-app-images/01J.png",
		},
		{
			name: "other cloud is skipped",
			url:  "https://res.cloudinary.com/someone-else/image/upload/v1/" + imagePath + ".png",
		},
		{
			name: "foreign host is skipped",
			url:  "https://example.com/x.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAPI{result: tt.result}
			store := newStore(fake, testConfig, silentLogger)

			err := store.Delete(context.Background(), owner, tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.wantReq == nil {
				assert.Empty(t, fake.destroys)
				return
			}
			require.Len(t, fake.destroys, 1)
			assert.Equal(t, *tt.wantReq, fake.destroys[0])
		})
	}
}

func TestStorePutThenDeleteByAnotherOwner(t *testing.T) {
	fake := &fakeAPI{result: "ok"}
	store := newStore(fake, testConfig, silentLogger)
	owner := bson.NewObjectID()

	url, err := store.Put(context.Background(), media.Object{Kind: media.KindAudio, OwnerID: owner, Data: []byte("a")})
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), bson.NewObjectID(), url))
	assert.Empty(t, fake.destroys)

	require.NoError(t, store.Delete(context.Background(), owner, url))
	require.Len(t, fake.destroys, 1)
	assert.Equal(t, "video", fake.destroys[0].ResourceType)
}

func TestStoreDeleteHonoursCancelledContext(t *testing.T) {
	cfg := testConfig
	cfg.MediaRatePerSec = 1
	cfg.MediaBurst = 1
	fake := &fakeAPI{result: "ok"}
	store := newStore(fake, cfg, silentLogger)
	owner := bson.NewObjectID()

	url := "https://res.cloudinary.com/demo/image/upload/v1/Notes-app-images/" + owner.Hex() + "/01J.png"
	require.NoError(t, store.Delete(context.Background(), owner, url))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Delete(ctx, owner, url)
	assert.Error(t, err, "limiter wait fails on a cancelled context")
	assert.Len(t, fake.destroys, 1)
}
