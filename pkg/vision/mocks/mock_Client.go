// Package mocks provides test doubles for the vision client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	vision "github.com/sells-group/doc-extractor/pkg/vision"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// AnnotateImage provides a mock function with given fields: ctx, content
func (_m *MockClient) AnnotateImage(ctx context.Context, content []byte) (*vision.AnnotateImageResponse, error) {
	ret := _m.Called(ctx, content)

	if len(ret) == 0 {
		panic("no return value specified for AnnotateImage")
	}

	var r0 *vision.AnnotateImageResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []byte) (*vision.AnnotateImageResponse, error)); ok {
		return rf(ctx, content)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []byte) *vision.AnnotateImageResponse); ok {
		r0 = rf(ctx, content)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*vision.AnnotateImageResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, []byte) error); ok {
		r1 = rf(ctx, content)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// AnnotateFile provides a mock function with given fields: ctx, content, mimeType
func (_m *MockClient) AnnotateFile(ctx context.Context, content []byte, mimeType string) (*vision.AnnotateFileResponse, error) {
	ret := _m.Called(ctx, content, mimeType)

	if len(ret) == 0 {
		panic("no return value specified for AnnotateFile")
	}

	var r0 *vision.AnnotateFileResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []byte, string) (*vision.AnnotateFileResponse, error)); ok {
		return rf(ctx, content, mimeType)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []byte, string) *vision.AnnotateFileResponse); ok {
		r0 = rf(ctx, content, mimeType)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*vision.AnnotateFileResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, []byte, string) error); ok {
		r1 = rf(ctx, content, mimeType)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
