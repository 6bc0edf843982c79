package collada

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndisidore/collada/pkg/markup"
)

type letter struct{ name string }

func (l *letter) ElementName() string { return l.name }

func buildLetter(e *markup.Element, _ *builder) (*letter, error) {
	return &letter{name: e.Name}, nil
}

var _letters = []alt[Node]{
	alternative[Node]("A", buildLetter),
	alternative[Node]("B", buildLetter),
	alternative[Node]("C", buildLetter),
}

func testBuilder() *builder {
	return newBuilder(Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func elem(name string, children ...*markup.Element) *markup.Element {
	return &markup.Element{Name: name, Children: children}
}

func TestChoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		el     *markup.Element
		want   string
		wantOK bool
	}{
		{name: "child matches second alternative", el: elem("slot", elem("B")), want: "B", wantOK: true},
		{name: "declared order beats document order", el: elem("slot", elem("C"), elem("A")), want: "A", wantOK: true},
		{name: "own name beats children", el: elem("C", elem("A")), want: "C", wantOK: true},
		{name: "non alternatives ignored", el: elem("slot", elem("x"), elem("B")), want: "B", wantOK: true},
		{name: "no match", el: elem("slot", elem("x"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok, err := choose(testBuilder(), tt.el, _letters)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got.ElementName())
		})
	}
}

func TestChooseRequired(t *testing.T) {
	t.Parallel()

	_, err := chooseRequired(testBuilder(), elem("geometry", elem("asset")), "geometric element", _letters)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "geometry", se.Element)
	assert.Equal(t, "geometric element", se.Field)
	assert.ErrorIs(t, err, ErrNoChoice)
}

func TestChooseEach(t *testing.T) {
	t.Parallel()

	got, err := chooseEach(testBuilder(), elem("mesh", elem("C"), elem("x"), elem("A"), elem("C")), _letters)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, n := range got {
		names = append(names, n.ElementName())
	}
	assert.Equal(t, []string{"C", "A", "C"}, names)
}

func TestBuildReusesFinishedNodes(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	e := elem("B")
	done := &letter{name: "finished"}
	b.built[e] = done

	got, ok, err := choose(b, elem("slot", e), _letters)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, done, got)
}
