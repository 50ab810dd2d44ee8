// Package mocks provides testify mocks for small stdlib interfaces,
// for tests that need to force an I/O error mid-read.
package mocks

import "github.com/stretchr/testify/mock"

type Reader struct {
	mock.Mock
}

func (m *Reader) Read(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}
