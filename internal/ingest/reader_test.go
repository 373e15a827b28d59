package ingest

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	t.Run("HeaderAndRows", func(t *testing.T) {
		input := "\ufeffFirst buy time, Item ,Profit\n" +
			"T1,Coal,10\n" +
			"\n" +
			",,\n" +
			"T3,\"Logs, oak\"\n"

		rows, err := ReadRows(strings.NewReader(input))

		require.NoError(t, err)
		assert.Equal(t, []Row{
			{"First buy time": "T1", "Item": "Coal", "Profit": "10"},
			{"First buy time": "T3", "Item": "Logs, oak", "Profit": ""},
		}, rows)
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		rows, err := ReadRows(strings.NewReader("Item,Profit\n"))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ReadRows(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("BlankHeader", func(t *testing.T) {
		_, err := ReadRows(strings.NewReader(" , \nT1,Coal\n"))
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("ReadFailure", func(t *testing.T) {
		_, err := ReadRows(iotest.ErrReader(errors.New("disk gone")))
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.Contains(t, err.Error(), "disk gone")
	})
}
