package odbc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsError(t *testing.T) {
	err := NewError(ErrFetch, "boom")
	assert.True(t, IsError(err, ErrFetch))
	assert.False(t, IsError(err, ErrBind))
	assert.Equal(t, "odbc: boom", err.Error())

	wrapped := fmt.Errorf("can't open view: %w", err)
	assert.True(t, IsError(wrapped, ErrFetch))
	assert.True(t, IsError(fmt.Errorf("outer: %w", wrapped), ErrFetch))

	assert.False(t, IsError(errors.New("plain"), ErrFetch))
	assert.False(t, IsError(nil, ErrFetch))
}
