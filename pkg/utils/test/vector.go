package testutils

import (
	"context"
	"fmt"

	"github.com/arqalabs/arqa/pkg/vector"
)

// MockVectorDriver is a test vector driver that records adds and returns
// configurable results.
type MockVectorDriver struct {
	// Vectors and Metas accumulate everything passed to Add, aligned.
	Vectors [][]float32
	Metas   []vector.Metadata

	// Results is returned by Query for any embedding.
	Results []vector.Result

	// FailAdd causes Add to return an error without storing anything.
	FailAdd bool

	// AddCalls counts Add invocations, including failed ones.
	AddCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, vectors [][]float32, metas []vector.Metadata) (int, error) {
	m.AddCalls++
	if m.FailAdd {
		return 0, fmt.Errorf("mock add failure")
	}
	m.Vectors = append(m.Vectors, vectors...)
	m.Metas = append(m.Metas, metas...)
	return len(vectors), nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.Result, error) {
	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.Vectors), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
