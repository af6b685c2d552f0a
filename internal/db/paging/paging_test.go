package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Request
		want Request
	}{
		{"zero values", Request{}, Request{Current: 1, Size: DefaultSize}},
		{"negative current", Request{Current: -3, Size: 5}, Request{Current: 1, Size: 5}},
		{"oversized", Request{Current: 2, Size: 1000}, Request{Current: 2, Size: MaxSize}},
		{"untouched", Request{Current: 4, Size: 20}, Request{Current: 4, Size: 20}},
		{"huge current", Request{Current: math.MaxInt, Size: MaxSize}, Request{Current: MaxCurrent, Size: MaxSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestNewPage(t *testing.T) {
	req := Request{Current: 2, Size: 10}

	p := NewPage(req, []string{"a"}, 21)
	assert.Equal(t, int64(3), p.Pages)
	assert.Equal(t, 10, req.Offset())
	assert.Equal(t, 2, p.Current)

	empty := NewPage[string](req, nil, 0)
	assert.NotNil(t, empty.Records)
	assert.Equal(t, int64(0), empty.Pages)
}

func TestOffsetDoesNotOverflow(t *testing.T) {
	for _, size := range []int{0, 1, DefaultSize, MaxSize, math.MaxInt} {
		r := Request{Current: math.MaxInt, Size: size}.Normalize()
		assert.GreaterOrEqual(t, r.Offset(), 0, size)
	}
}
