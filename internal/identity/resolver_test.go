package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/deliver/internal/model"
)

func TestNormalize(t *testing.T) {
	r := NewResolver("")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "adds prefix", raw: "1234567", want: "s1234567"},
		{name: "keeps prefix", raw: "s1234567", want: "s1234567"},
		{name: "trims whitespace", raw: "  7654321\t", want: "s7654321"},
		{name: "blank", raw: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Normalize(tt.raw).Canonical)
		})
	}
}

// TestNormalize_Idempotent checks normalize(normalize(s)) == normalize(s).
func TestNormalize_Idempotent(t *testing.T) {
	r := NewResolver(DefaultPrefix)
	for _, raw := range []string{"1234567", "s1234567", "ss1", " x9 ", "S123"} {
		once := r.Normalize(raw)
		twice := r.Normalize(once.Canonical)
		assert.Equal(t, once.Canonical, twice.Canonical, "input %q", raw)
	}
}

func TestNormalize_CustomPrefix(t *testing.T) {
	r := NewResolver("u")
	assert.Equal(t, "u42", r.Normalize("42").Canonical)
	assert.Equal(t, "u42", r.Normalize("u42").Canonical)
}

func TestResolve(t *testing.T) {
	r := NewResolver(DefaultPrefix)

	t.Run("primary only", func(t *testing.T) {
		ids, err := r.Resolve("1234567", "  ")
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, "s1234567", ids[0].Canonical)
	})

	t.Run("two identities keep order", func(t *testing.T) {
		ids, err := r.Resolve("s7654321", "1112223")
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, "s7654321", ids[0].Canonical)
		assert.Equal(t, "s1112223", ids[1].Canonical)
	})

	t.Run("missing primary is a validation error", func(t *testing.T) {
		_, err := r.Resolve(" \t", "1112223")
		require.Error(t, err)
		var cliErr *model.CLIError
		require.True(t, errors.As(err, &cliErr))
		assert.Equal(t, model.ExitValidation, cliErr.Code)
	})
}

func TestDeriveFilename(t *testing.T) {
	r := NewResolver(DefaultPrefix)

	tests := []struct {
		name      string
		part      string
		primary   string
		secondary string
		want      string
	}{
		{name: "part a single", part: "a", primary: "1234567", want: "assignment2A-s1234567.tar.gz"},
		{name: "part 2a single", part: "2a", primary: "1234567", want: "assignment2A-s1234567.tar.gz"},
		{name: "part 2b pair", part: "2b", primary: "s7654321", secondary: "1112223", want: "assignment2B-s7654321-s1112223.tar.gz"},
		{name: "part b pair", part: "b", primary: "s7654321", secondary: "s1112223", want: "assignment2B-s7654321-s1112223.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, err := model.ParsePart(tt.part)
			require.NoError(t, err)
			ids, err := r.Resolve(tt.primary, tt.secondary)
			require.NoError(t, err)

			got, err := DeriveFilename(part, ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDeriveFilename_Injective checks that distinct identity tuples never
// produce the same file name for one part.
func TestDeriveFilename_Injective(t *testing.T) {
	r := NewResolver(DefaultPrefix)
	tuples := [][2]string{
		{"1", ""},
		{"1", "2"},
		{"2", "1"},
		{"12", ""},
		{"1", "23"},
		{"12", "3"},
	}

	seen := make(map[string][2]string)
	for _, tuple := range tuples {
		ids, err := r.Resolve(tuple[0], tuple[1])
		require.NoError(t, err)
		name, err := DeriveFilename(model.PartA, ids)
		require.NoError(t, err)
		if prev, dup := seen[name]; dup {
			t.Fatalf("collision: %v and %v both map to %s", prev, tuple, name)
		}
		seen[name] = tuple
	}
}

func TestDeriveFilename_Errors(t *testing.T) {
	_, err := DeriveFilename(model.Part("C"), []model.Identity{{Canonical: "s1"}})
	assert.Error(t, err)

	_, err = DeriveFilename(model.PartA, nil)
	assert.Error(t, err)

	three := []model.Identity{{Canonical: "s1"}, {Canonical: "s2"}, {Canonical: "s3"}}
	_, err = DeriveFilename(model.PartA, three)
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	ids := []model.Identity{{Canonical: "s1"}, {Canonical: "s2"}}
	assert.Equal(t, "s1, s2", Join(ids))
}

func TestResolve_ForbiddenCharacters(t *testing.T) {
	r := NewResolver(DefaultPrefix)
	for _, raw := range []string{"12-34", "12/34", "12 34", `12\34`} {
		_, err := r.Resolve(raw, "")
		assert.Error(t, err, "primary %q", raw)

		_, err = r.Resolve("1234567", raw)
		assert.Error(t, err, "secondary %q", raw)
	}
}
