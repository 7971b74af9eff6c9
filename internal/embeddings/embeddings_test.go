package embeddings

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestGetSync(t *testing.T) {
	assert := assert_.New(t)

	svc := NewService(func(ctx context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text))}, nil
	}, 2)
	defer svc.Close()

	vec, err := svc.GetSync(context.Background(), "hello")
	assert.NoError(err)
	assert.Equal([]float32{5}, vec)
}

func TestCacheSkipsRepeatGeneration(t *testing.T) {
	assert := assert_.New(t)

	var calls int64
	svc := NewService(func(ctx context.Context, text string) ([]float32, error) {
		atomic.AddInt64(&calls, 1)
		return []float32{1}, nil
	}, 1)
	defer svc.Close()

	for i := 0; i < 3; i++ {
		_, err := svc.GetSync(context.Background(), "same content")
		assert.NoError(err)
	}
	assert.Equal(int64(1), atomic.LoadInt64(&calls))
}

func TestGeneratorErrorSurfaces(t *testing.T) {
	assert := assert_.New(t)

	svc := NewService(func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("backend down")
	}, 1)
	defer svc.Close()

	_, err := svc.GetSync(context.Background(), "text")
	assert.ErrorContains(err, "backend down")
}
