package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() *Table {
	return UsersTable([]UserCount{
		{UserID: "A", Name: "Ada", Archetype: "SecuritySavvy", Successes: 2, Fails: 1},
		{UserID: "B", Name: "B|o", Archetype: "Dummy", Fails: 1, Misses: 1},
	})
}

func TestRender_CSV(t *testing.T) {
	data, err := Render(sampleUsers(), config.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t,
		"user_id,name,type,successes,fails,misses\n"+
			"A,Ada,SecuritySavvy,2,1,0\n"+
			"B,B|o,Dummy,0,1,1\n",
		string(data))
}

func TestRender_JSON(t *testing.T) {
	data, err := Render(sampleUsers(), config.FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"user_id":"A","name":"Ada","type":"SecuritySavvy","successes":2,"fails":1,"misses":0},
		{"user_id":"B","name":"B|o","type":"Dummy","successes":0,"fails":1,"misses":1}
	]`, string(data))

	empty, err := Render(DatesTable([]DateCount{}), config.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestRender_Markdown(t *testing.T) {
	data, err := Render(sampleUsers(), config.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t,
		"## Outcomes per user\n\n"+
			"| user_id | name | type | successes | fails | misses |\n"+
			"| --- | --- | --- | --- | --- | --- |\n"+
			"| A | Ada | SecuritySavvy | 2 | 1 | 0 |\n"+
			`| B | B\|o | Dummy | 0 | 1 | 1 |`+"\n",
		string(data))

	empty, err := Render(DatesTable(nil), config.FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(empty), "_No results._")
}

func TestRender_HTML(t *testing.T) {
	data, err := Render(sampleUsers(), config.FormatHTML)
	require.NoError(t, err)

	page := string(data)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Outcomes per user</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<th>user_id</th>")
	assert.Contains(t, page, "<td>SecuritySavvy</td>")
	assert.Contains(t, page, "<td>B|o</td>")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(sampleUsers(), "xlsx")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	paths, err := Export(sampleUsers(), dir, []string{config.FormatCSV, config.FormatMarkdown, config.FormatHTML, config.FormatJSON})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "users.csv"),
		filepath.Join(dir, "users.md"),
		filepath.Join(dir, "users.html"),
		filepath.Join(dir, "users.json"),
	}, paths)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size(), p)
	}
}

func TestExport_UnsupportedFormatStops(t *testing.T) {
	dir := t.TempDir()
	paths, err := Export(sampleUsers(), dir, []string{config.FormatCSV, "pdf"})
	require.Error(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "users.csv")}, paths)
}
