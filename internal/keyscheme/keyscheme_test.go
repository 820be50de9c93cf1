package keyscheme

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func drawDate(t *rapid.T, label string) string {
	y := rapid.IntRange(1970, 2999).Draw(t, label+"_year")
	m := rapid.IntRange(1, 12).Draw(t, label+"_month")
	d := rapid.IntRange(1, 28).Draw(t, label+"_day")
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func drawID(t *rapid.T, label string) string {
	return rapid.StringMatching(`[A-Za-z0-9_-]{1,24}`).Draw(t, label)
}

func TestRootPrefix(t *testing.T) {
	assert.Equal(t, "todo.", RootPrefix())
}

func TestMakeKey(t *testing.T) {
	key, err := MakeKey("2024-01-01", "abc")
	require.NoError(t, err)
	assert.Equal(t, "todo.2024-01-01.abc", key)
}

func TestMakeKey_EmptyID(t *testing.T) {
	key, err := MakeKey("2024-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, "todo.2024-01-01.", key)
}

func TestMakeDatePrefix(t *testing.T) {
	prefix, err := MakeDatePrefix("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "todo.2024-03-15.", prefix)
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date  string
		valid bool
	}{
		{"2024-01-01", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-1-01", false},
		{"2024-01-1", false},
		{"24-01-01", false},
		{"2024/01/01", false},
		{"2024-01-01.x", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := ValidateDate(tt.date)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidDate)
			}
		})
	}
}

func TestMakeKey_RejectsSeparatorInID(t *testing.T) {
	_, err := MakeKey("2024-01-01", "a.b")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMakeKey_RejectsInvalidDate(t *testing.T) {
	_, err := MakeKey("2024-13-01", "a")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = MakeDatePrefix("not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseKey(t *testing.T) {
	date, id, err := ParseKey("todo.2024-05-06.0190a1b2")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", date)
	assert.Equal(t, "0190a1b2", id)
}

func TestParseKey_Invalid(t *testing.T) {
	keys := []string{
		"other.2024-05-06.x",
		"todo.2024-05-06",
		"todo.bad.x",
		"todo.2024-05-06.x.y",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			_, _, err := ParseKey(key)
			assert.Error(t, err)
		})
	}
}

func TestMakeKey_Deterministic_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		date := drawDate(t, "date")
		id := drawID(t, "id")

		k1, err := MakeKey(date, id)
		require.NoError(t, err)
		k2, err := MakeKey(date, id)
		require.NoError(t, err)
		assert.Equal(t, k1, k2)

		gotDate, gotID, err := ParseKey(k1)
		require.NoError(t, err)
		assert.Equal(t, date, gotDate)
		assert.Equal(t, id, gotID)
	})
}

func TestMakeKey_Injective_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d1, i1 := drawDate(t, "d1"), drawID(t, "i1")
		d2, i2 := drawDate(t, "d2"), drawID(t, "i2")

		k1, err := MakeKey(d1, i1)
		require.NoError(t, err)
		k2, err := MakeKey(d2, i2)
		require.NoError(t, err)

		if d1 == d2 && i1 == i2 {
			assert.Equal(t, k1, k2)
		} else {
			assert.NotEqual(t, k1, k2)
		}
	})
}

func TestPrefixContainment_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		date := drawDate(t, "date")
		other := drawDate(t, "other")
		id := drawID(t, "id")

		prefix, err := MakeDatePrefix(date)
		require.NoError(t, err)
		key, err := MakeKey(date, id)
		require.NoError(t, err)
		otherKey, err := MakeKey(other, id)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(prefix, RootPrefix()))
		assert.True(t, strings.HasPrefix(key, prefix))
		assert.Equal(t, date == other, strings.HasPrefix(otherKey, prefix),
			"date prefix must match only its own date")
	})
}
