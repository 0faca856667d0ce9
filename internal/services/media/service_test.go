package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

type storeStub struct {
	err     error
	created []model.MediaObject
}

func (s *storeStub) Create(_ context.Context, uploaderID int64, objectKey, contentType string, sizeBytes int64) (model.MediaObject, error) {
	if s.err != nil {
		return model.MediaObject{}, s.err
	}
	object := model.MediaObject{
		ID:          int64(len(s.created) + 1),
		UploaderID:  uploaderID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	}
	s.created = append(s.created, object)
	return object, nil
}

func (s *storeStub) Get(_ context.Context, mediaID int64) (*model.MediaObject, error) {
	for _, object := range s.created {
		if object.ID == mediaID {
			copied := object
			return &copied, nil
		}
	}
	return nil, nil
}

type storageStub struct {
	putKeys     []string
	deletedKeys []string
	putErr      error
}

func (s *storageStub) Put(_ context.Context, objectKey, _ string, _ io.Reader, _ int64) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.putKeys = append(s.putKeys, objectKey)
	return nil
}

func (s *storageStub) Delete(_ context.Context, objectKey string) error {
	s.deletedKeys = append(s.deletedKeys, objectKey)
	return nil
}

func TestUploadStoresObjectAndRow(t *testing.T) {
	store := &storeStub{}
	storage := &storageStub{}
	svc := NewService(Dependencies{Store: store, Storage: storage})

	object, err := svc.Upload(context.Background(), UploadRequest{
		UploaderID:  1,
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg bytes"),
		SizeBytes:   10,
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(storage.putKeys) != 1 {
		t.Fatalf("expected one stored object, got %d", len(storage.putKeys))
	}
	if object.ObjectKey != storage.putKeys[0] {
		t.Fatalf("row key %q does not match stored key %q", object.ObjectKey, storage.putKeys[0])
	}
}

func TestUploadDeletesBlobWhenRowFails(t *testing.T) {
	store := &storeStub{err: errors.New("insert failed")}
	storage := &storageStub{}
	svc := NewService(Dependencies{Store: store, Storage: storage})

	_, err := svc.Upload(context.Background(), UploadRequest{
		UploaderID:  1,
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg bytes"),
		SizeBytes:   10,
	})
	if err == nil {
		t.Fatalf("expected upload to fail")
	}
	if len(storage.deletedKeys) != 1 || storage.deletedKeys[0] != storage.putKeys[0] {
		t.Fatalf("stored blob should be removed after a failed insert, deleted %v", storage.deletedKeys)
	}
}

func TestUploadValidation(t *testing.T) {
	svc := NewService(Dependencies{Store: &storeStub{}, Storage: &storageStub{}})

	cases := []UploadRequest{
		{UploaderID: 0, ContentType: "image/jpeg", Body: strings.NewReader("x"), SizeBytes: 1},
		{UploaderID: 1, ContentType: "", Body: strings.NewReader("x"), SizeBytes: 1},
		{UploaderID: 1, ContentType: "image/jpeg", Body: nil, SizeBytes: 1},
		{UploaderID: 1, ContentType: "image/jpeg", Body: strings.NewReader("x"), SizeBytes: 0},
		{UploaderID: 1, ContentType: "image/jpeg", Body: strings.NewReader("x"), SizeBytes: maxUploadBytes + 1},
	}
	for i, req := range cases {
		if _, err := svc.Upload(context.Background(), req); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}
