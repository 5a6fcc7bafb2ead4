// Package mocks provides test doubles for the ocr package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	ocr "github.com/sells-group/doc-extractor/internal/ocr"
)

// MockRecognizer is a mock type for the Recognizer interface.
type MockRecognizer struct {
	mock.Mock
}

// Recognize provides a mock function with given fields: ctx, content, mimeType
func (_m *MockRecognizer) Recognize(ctx context.Context, content []byte, mimeType string) (*ocr.Recognition, error) {
	ret := _m.Called(ctx, content, mimeType)

	if len(ret) == 0 {
		panic("no return value specified for Recognize")
	}

	var r0 *ocr.Recognition
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []byte, string) (*ocr.Recognition, error)); ok {
		return rf(ctx, content, mimeType)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []byte, string) *ocr.Recognition); ok {
		r0 = rf(ctx, content, mimeType)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*ocr.Recognition)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, []byte, string) error); ok {
		r1 = rf(ctx, content, mimeType)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockRecognizer creates a new instance of MockRecognizer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockRecognizer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecognizer {
	m := &MockRecognizer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
