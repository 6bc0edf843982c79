package collada

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndisidore/collada/pkg/markup"
)

func TestListFloats(t *testing.T) {
	t.Parallel()

	e := &markup.Element{Name: "float_array"}

	tests := []struct {
		name      string
		input     string
		want      []float64
		wantToken string
	}{
		{name: "mixed signs", input: "1.0 2.5 -3", want: []float64{1.0, 2.5, -3.0}},
		{name: "irregular whitespace", input: "\n\t1   2\n3 ", want: []float64{1, 2, 3}},
		{name: "exponent", input: "1e3 -2.5E-1", want: []float64{1000, -0.25}},
		{name: "empty", input: "   ", want: []float64{}},
		{name: "bad token", input: "1.0 x 3", wantToken: "x"},
		{name: "first bad token wins", input: "1 a b", wantToken: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := list(e, "float_array", tt.input, parseFloat)
			if tt.wantToken != "" {
				var ve *ValueError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantToken, ve.Token)
				assert.Equal(t, "float_array", ve.Field)
				assert.ErrorIs(t, err, ErrInvalidValue)
				assert.ErrorIs(t, err, strconv.ErrSyntax)
				assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFixedArity(t *testing.T) {
	t.Parallel()

	e := &markup.Element{Name: "translate"}

	got, err := fixed(e, "translate", "1 2 3", 3, parseFloat)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	_, err = fixed(e, "translate", "1 2", 3, parseFloat)
	require.ErrorIs(t, err, ErrArity)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "want 3, got 2")
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{input: "true", want: true},
		{input: "1", want: true},
		{input: "false", want: false},
		{input: "0", want: false},
		{input: "TRUE", wantErr: true},
		{input: "yes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseBool(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, _errNotBool))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntegers(t *testing.T) {
	t.Parallel()

	e := &markup.Element{Name: "p"}

	got, err := list(e, "p", "0 1 2 18446744073709551615", parseUint)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 18446744073709551615}, got)

	_, err = list(e, "p", "0 -1", parseUint)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "-1", ve.Token)

	_, err = list(e, "v", "99999999999999999999", parseInt)
	require.ErrorIs(t, err, strconv.ErrRange)
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2024-03-01T10:00:00Z", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{input: "2024-03-01T10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{input: "2024-03-01T10:00:00.5", want: time.Date(2024, 3, 1, 10, 0, 0, 500000000, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseTime(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := parseTime("yesterday")
	assert.ErrorIs(t, err, _errNotTime)
}

func TestEnumAttrOr(t *testing.T) {
	t.Parallel()

	e := &markup.Element{Name: "node", Attrs: []markup.Attr{{Name: "type", Value: "JOINT"}}}
	got, err := enumAttrOr(e, "type", NodeTypeNode, NodeTypeNode, NodeTypeJoint)
	require.NoError(t, err)
	assert.Equal(t, NodeTypeJoint, got)

	got, err = enumAttrOr(&markup.Element{Name: "node"}, "type", NodeTypeNode, NodeTypeNode, NodeTypeJoint)
	require.NoError(t, err)
	assert.Equal(t, NodeTypeNode, got)

	bad := &markup.Element{Name: "node", Attrs: []markup.Attr{{Name: "type", Value: "BONE"}}}
	_, err = enumAttrOr(bad, "type", NodeTypeNode, NodeTypeNode, NodeTypeJoint)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "BONE", ve.Token)
	assert.Equal(t, "type", ve.Field)
}
