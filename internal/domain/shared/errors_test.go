package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	specific := NewDomainError("NOT_FOUND", "Asset abc not found")
	assert.True(t, errors.Is(specific, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("find: %w", specific), ErrNotFound))
	assert.False(t, errors.Is(specific, ErrValidation))
	assert.Equal(t, "Asset abc not found", specific.Error())
}

func TestWriteResult(t *testing.T) {
	assert.True(t, Durable().Durable())
	assert.True(t, Durable().Committed())

	inMem := InMemory(errors.New("disk full"))
	assert.False(t, inMem.Durable())
	assert.True(t, inMem.Committed())
	assert.Equal(t, "in_memory: disk full", inMem.String())

	failed := Failed(ErrValidation)
	assert.False(t, failed.Committed())
	assert.Equal(t, WriteFailed, failed.Outcome)
	assert.Equal(t, "durable", Durable().String())
}
