package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	input := "\ufefftitle,director,actor,rate,num,info,time,country,type,extra\n" +
		"霸王别姬,陈凯歌,张国荣/张丰毅,9.6,\"2,345,678人评价\",风华绝代,1993,中国大陆,剧情,x\n" +
		"Short,Someone\n"

	ds, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "title", ds.Columns[0])
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "2,345,678人评价", ds.Rows[0][ColNum])
	assert.Equal(t, "x", ds.Rows[0]["extra"])

	_, ok := ds.Rows[1][ColActor]
	assert.False(t, ok, "short row must leave trailing columns absent")
	assert.NoError(t, ValidateColumns(ds.Columns))
}

func TestReadCSV_Empty(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestValidateColumns(t *testing.T) {
	t.Parallel()

	err := ValidateColumns([]string{"title", "director", "actor", "rate", "info", "time", "country"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"num", "type"}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "num, type")
}
