package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	require.False(t, p.color)

	require.NoError(t, p.Print(DatesTable([]DateCount{
		{Date: "2024-01-01", Successes: 12, Fails: 3, Misses: 100},
		{Date: "2024-01-08", Successes: 1},
	})))

	assert.Equal(t,
		"Outcomes per day (2 rows)\n"+
			"DATE        SUCCESSES  FAILS  MISSES\n"+
			"2024-01-01  12         3      100\n"+
			"2024-01-08  1          0      0\n",
		buf.String())
}

func TestPrinter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Print(UsersTable(nil)))
	assert.Equal(t, "Outcomes per user (0 rows)\nUSER_ID  NAME  TYPE  SUCCESSES  FAILS  MISSES\n", buf.String())
}
