package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	type person struct{ Name string }
	var nilEntity Entity
	var nilSlice []any
	var nilPtr *person

	cases := []struct {
		name string
		in   any
		want Kind
	}{
		{"nil", nil, KindNull},
		{"typed nil entity", nilEntity, KindNull},
		{"typed nil slice", nilSlice, KindNull},
		{"typed nil pointer", nilPtr, KindNull},
		{"string", "Jen", KindScalar},
		{"int", 2, KindScalar},
		{"float", 1.5, KindScalar},
		{"bytes", []byte("x"), KindScalar},
		{"ref", RefTo(2), KindRef},
		{"ref pointer", &Ref{ID: 2}, KindRef},
		{"entity", Entity{"id": 1}, KindEntity},
		{"plain map", map[string]any{"id": 1}, KindEntity},
		{"struct", person{Name: "Jen"}, KindEntity},
		{"struct pointer", &person{Name: "Jen"}, KindEntity},
		{"list", []any{1, 2}, KindList},
		{"typed list", []Entity{{"id": 1}}, KindList},
		{"array", [2]int{1, 2}, KindList},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestAsID(t *testing.T) {
	for _, in := range []any{2, int64(2), int32(2), 2.0, "2", RefTo(2), &Ref{ID: 2}} {
		id, ok := AsID(in)
		require.True(t, ok, "%T", in)
		require.Equal(t, 2, id)
	}
	for _, in := range []any{nil, 2.5, "two", true, (*Ref)(nil)} {
		_, ok := AsID(in)
		require.False(t, ok, "%v", in)
	}
}

func TestEntityClone(t *testing.T) {
	e := Entity{"id": 1, "name": "Jen"}
	c := e.Clone()
	c["name"] = "Chris"
	require.Equal(t, "Jen", e["name"])
	id, ok := c.ID()
	require.True(t, ok)
	require.Equal(t, 1, id)
}
