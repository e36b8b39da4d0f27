package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

type color string

func (c color) valid() bool { return c == "RED" || c == "BLUE" }

func queryRequest(rawQuery string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/orders?"+rawQuery, nil)
}

func TestParseQueryInt(t *testing.T) {
	n, err := ParseQueryInt(queryRequest(""), "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = ParseQueryInt(queryRequest("limit=+5"), "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = ParseQueryInt(queryRequest("limit=abc"), "limit", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(queryRequest("limit=101"), "limit", 20, 1, 100)
	require.Error(t, err)
	assert.Equal(t, 100, details(t, err)["max"])
}

func TestParseQueryEnumNormalisesCase(t *testing.T) {
	got, err := ParseQueryEnum(queryRequest("c=blue"), "c", color.valid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, color("BLUE"), *got)

	got, err = ParseQueryEnum(queryRequest(""), "c", color.valid)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseQueryEnum(queryRequest("c=green"), "c", color.valid)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryCursor(t *testing.T) {
	got, err := ParseQueryCursor(queryRequest("cursor=eyJpZCI6IjEifQ"), "cursor")
	require.NoError(t, err)
	assert.Equal(t, "eyJpZCI6IjEifQ", got)

	_, err = ParseQueryCursor(queryRequest("cursor=a%00b"), "cursor")
	assert.Error(t, err)

	_, err = ParseQueryCursor(queryRequest("cursor="+strings.Repeat("a", maxCursorLength+1)), "cursor")
	assert.Error(t, err)
}
