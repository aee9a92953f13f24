package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, Params{}.Normalize())
	assert.Equal(t, Params{Page: 3, Limit: MaxLimit}, Params{Page: 3, Limit: 500}.Normalize())
	assert.Equal(t, Params{Page: 1, Limit: 5}, Params{Page: -2, Limit: 5}.Normalize())
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
}

func TestMetaFor(t *testing.T) {
	assert.Equal(t, Meta{Total: 0, Pages: 0, CurrentPage: 1, Limit: 10}, MetaFor(Params{}, 0))
	assert.Equal(t, Meta{Total: 21, Pages: 3, CurrentPage: 2, Limit: 10}, MetaFor(Params{Page: 2, Limit: 10}, 21))
	assert.Equal(t, Meta{Total: 10, Pages: 1, CurrentPage: 1, Limit: 10}, MetaFor(Params{}, 10))
}
