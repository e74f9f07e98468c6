package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchBuffer(t *testing.T) {
	b := NewBatchBuffer[int](3)
	assert.False(t, b.HasData())
	assert.Nil(t, b.GetAndClear())

	b.Add(1, 2)
	assert.False(t, b.Full())
	b.Add(3)
	assert.True(t, b.Full())

	assert.Equal(t, []int{1, 2, 3}, b.GetAndClear())
	assert.Zero(t, b.Size())
}

func TestBatchBuffer_ConcurrentAdd(t *testing.T) {
	b := NewBatchBuffer[int](10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Add(i)
		}()
	}
	wg.Wait()

	assert.Len(t, b.GetAndClear(), 50)
}

func TestDeserializeFromJSON(t *testing.T) {
	var v struct {
		Texts []string `json:"texts"`
	}
	assert.NoError(t, DeserializeFromJSON([]byte(`{"texts":["a","b"]}`), &v))
	assert.Equal(t, []string{"a", "b"}, v.Texts)
	assert.Error(t, DeserializeFromJSON([]byte(`{"texts":`), &v))

	data, err := SerializeToJSON(v)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"texts":["a","b"]}`, string(data))
}
