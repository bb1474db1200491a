package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educacao-adventista/matriculometro/internal/model"
)

func intPtr(n int) *int { return &n }

func TestWriteCSV(t *testing.T) {
	created := time.Date(2025, 10, 1, 20, 59, 2, 670_000_000, time.UTC)
	updated := time.Date(2025, 10, 2, 12, 2, 36, 59_000_000, time.FixedZone("BRT", -3*3600))

	var buf bytes.Buffer
	err := WriteCSV(&buf, []*model.Goal{
		{ID: 56, Category: "1º ano manhã", Target: 20, Achieved: 0, CreatedAt: created, UpdatedAt: updated},
		{ID: 57, Category: `Turma "A", manhã`, Target: 20, Achieved: 5},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,category,target,achieved,createdAt,updatedAt", lines[0])
	assert.Equal(t, "56,1º ano manhã,20,0,2025-10-01T20:59:02.670Z,2025-10-02T15:02:36.059Z", lines[1])
	assert.Equal(t, `57,"Turma ""A"", manhã",20,5,,`, lines[2])
}

func TestCSVRoundTrip(t *testing.T) {
	categories := []string{
		`Turma "A", manhã`,
		"Maternal manhã",
		"linha\nquebrada",
		`"`,
		" Creche ",
	}

	for _, category := range categories {
		var buf bytes.Buffer
		err := WriteCSV(&buf, []*model.Goal{{ID: 1, Category: category, Target: 20, Achieved: 5, CreatedAt: time.Now()}})
		require.NoError(t, err)

		goals, err := ParseCSV(&buf)
		require.NoError(t, err)
		require.Len(t, goals, 1, category)
		assert.Equal(t, category, goals[0].Category)
		assert.Equal(t, 20, *goals[0].Target)
		assert.Equal(t, 5, *goals[0].Achieved)
	}
}

func TestParseCSVSkipsMalformedRows(t *testing.T) {
	text := strings.Join([]string{
		"id,category,target,achieved,createdAt,updatedAt",
		"1,Maternal manhã,20",
		`2,1º ano "tarde,30,10,,`,
		"3,1º ano manhã,30,10,2025-10-01T20:59:02.670Z,",
		"4,,10,1,,",
		"5,Sem alvo,abc,1,,",
		"6,Jardim tarde,15,0,not-a-date,",
	}, "\n")

	goals, err := ParseCSV(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, []model.GoalInput{
		{Category: "1º ano manhã", Target: intPtr(30), Achieved: intPtr(10)},
		{Category: "Jardim tarde", Target: intPtr(15), Achieved: intPtr(0)},
	}, goals)
}

func TestParseCSVUnclosedQuoteSkipsOnlyItsLine(t *testing.T) {
	text := strings.Join([]string{
		"id,category,target,achieved,createdAt,updatedAt",
		`1,"Turma A,20,5,,`,
		"2,Berçário,12,3,,",
		"3,Creche,8,8,,",
	}, "\r\n")

	goals, err := ParseCSV(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []model.GoalInput{
		{Category: "Berçário", Target: intPtr(12), Achieved: intPtr(3)},
		{Category: "Creche", Target: intPtr(8), Achieved: intPtr(8)},
	}, goals)
}

func TestParseCSVNoValidRows(t *testing.T) {
	text := "category,target,achieved\n\"broken,1,1\n,2,2\n"

	goals, err := ParseCSV(strings.NewReader(text))
	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.Nil(t, goals)
}

func TestParseCSVHeaderOrder(t *testing.T) {
	text := "achieved,category,target\n3, Berçário ,12\n"

	goals, err := ParseCSV(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, " Berçário ", goals[0].Category)
	assert.Equal(t, 12, *goals[0].Target)
	assert.Equal(t, 3, *goals[0].Achieved)
}

func TestParseCSVEmpty(t *testing.T) {
	for _, text := range []string{"", "   \n", "id,category,target,achieved"} {
		goals, err := ParseCSV(strings.NewReader(text))
		require.NoError(t, err)
		assert.Empty(t, goals)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	goal := &model.Goal{ID: 7, Category: "Maternal manhã", Target: 20, Achieved: 3}
	require.NoError(t, WriteJSON(&buf, []*model.Goal{goal}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Maternal manhã", decoded[0]["category"])
	assert.Contains(t, decoded[0], "createdAt")
	assert.Contains(t, decoded[0], "updatedAt")
}

func TestDecodeImport(t *testing.T) {
	payload := `[
		{"id": 56, "category": "1º ano manhã", "target": 20, "achieved": 0,
		 "createdAt": "2025-10-01T20:59:02.670Z", "updatedAt": "2025-10-02T12:02:36.059Z"},
		{"category": "2º ano tarde", "target": 15}
	]`

	records, err := DecodeImport(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(56), *records[0].ID)
	assert.Equal(t, 20, *records[0].Target)
	assert.Equal(t, 0, *records[0].Achieved)
	assert.Equal(t, 2025, records[0].CreatedAt.Year())

	assert.Nil(t, records[1].ID)
	assert.Nil(t, records[1].Achieved)
	assert.Nil(t, records[1].CreatedAt)
}

func TestDecodeImportRejectsNonArray(t *testing.T) {
	for _, payload := range []string{`{"category":"x"}`, "", "null", `"goals"`} {
		_, err := DecodeImport(strings.NewReader(payload))
		assert.ErrorIs(t, err, ErrNotArray, payload)
	}

	_, err := DecodeImport(strings.NewReader(`[{"category": "x", "target": "vinte"}]`))
	assert.ErrorIs(t, err, ErrMalformed)
}
