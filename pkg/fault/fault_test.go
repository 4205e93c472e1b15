package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := New(KindRange, "discount%", "must be between 0 and 100")
	assert.Equal(t, "range error (discount%): must be between 0 and 100", err.Error())

	cause := errors.New("boom")
	w := Wrap(cause, KindArtifact, "loading model")
	assert.Equal(t, "artifact error: loading model: boom", w.Error())
	assert.ErrorIs(t, w, cause)
}

func TestIs_ThroughWrapping(t *testing.T) {
	base := Newf(KindEnum, "weekday", "unknown label %q", "Monday")
	err := fmt.Errorf("scoring: %w", base)

	assert.True(t, Is(err, KindEnum))
	assert.False(t, Is(err, KindType))

	k, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindEnum, k)
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, Is(nil, KindSchema))
}
