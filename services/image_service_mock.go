package services

import (
	"context"
	"mime/multipart"
)

// MockImageService is an ImageService backed by a MockS3Service, with an optional upload failure
type MockImageService struct {
	*S3ImageService
	Storage   *MockS3Service
	UploadErr error
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	storage := NewMockS3Service()
	return &MockImageService{
		S3ImageService: &S3ImageService{s3Service: storage},
		Storage:        storage,
	}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// UploadSwatch stores the image unless UploadErr is set
func (m *MockImageService) UploadSwatch(ctx context.Context, optionValueID uint, fileHeader *multipart.FileHeader) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	return m.S3ImageService.UploadSwatch(ctx, optionValueID, fileHeader)
}
