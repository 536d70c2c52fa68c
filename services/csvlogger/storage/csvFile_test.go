package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.Nil(t, err)

	return string(data)
}

func TestNewCSVFile(t *testing.T) {
	t.Parallel()

	t.Run("empty path should error", func(t *testing.T) {
		t.Parallel()

		f, err := NewCSVFile("")
		assert.Nil(t, f)
		assert.True(t, f.IsInterfaceNil())
		assert.ErrorContains(t, err, "empty output file path")
	})
	t.Run("should work", func(t *testing.T) {
		t.Parallel()

		f, err := NewCSVFile("out.csv")
		assert.Nil(t, err)
		assert.False(t, f.IsInterfaceNil())
		assert.Equal(t, "out.csv", f.Path())
	})
}

func TestCSVFile_CreateAndAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "airgradient.csv")
	f, _ := NewCSVFile(path)

	exists, err := f.Exists()
	require.Nil(t, err)
	assert.False(t, exists)

	err = f.Create(common.Schema{"timestamp", "serialno", "atmp", "rhum"}, common.Row{"ts1", "A1", "21.5", "40"})
	require.Nil(t, err)

	exists, err = f.Exists()
	require.Nil(t, err)
	assert.True(t, exists)

	err = f.Append(common.Row{"ts2", "A1", "", "41"})
	require.Nil(t, err)

	expected := "timestamp,serialno,atmp,rhum\nts1,A1,21.5,40\nts2,A1,,41\n"
	assert.Equal(t, expected, readFile(t, path))

	header, err := f.ReadHeaderLine()
	require.Nil(t, err)
	assert.Equal(t, "timestamp,serialno,atmp,rhum\n", header)
}

func TestCSVFile_CreateShouldNotOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "airgradient.csv")
	err := os.WriteFile(path, []byte("timestamp,atmp\nts0,20\n"), 0644)
	require.Nil(t, err)

	f, _ := NewCSVFile(path)
	err = f.Create(common.Schema{"timestamp", "rhum"}, common.Row{"ts1", "40"})
	assert.True(t, errors.Is(err, os.ErrExist))
	assert.Equal(t, "timestamp,atmp\nts0,20\n", readFile(t, path))
}

func TestCSVFile_AppendShouldNotCreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "airgradient.csv")
	f, _ := NewCSVFile(path)

	err := f.Append(common.Row{"ts1", "40"})
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCSVFile_AppendShouldCompleteInterruptedLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "airgradient.csv")
	err := os.WriteFile(path, []byte("timestamp,atmp\r\nts0,2"), 0644)
	require.Nil(t, err)

	f, _ := NewCSVFile(path)
	err = f.Append(common.Row{"ts1", "21"})
	require.Nil(t, err)

	assert.Equal(t, "timestamp,atmp\r\nts0,2\nts1,21\n", readFile(t, path))
}

func TestCSVFile_AppendShouldQuoteWhenNeeded(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "airgradient.csv")
	f, _ := NewCSVFile(path)

	err := f.Create(common.Schema{"timestamp", "model"}, common.Row{"ts1", "I-9PSL"})
	require.Nil(t, err)
	err = f.Append(common.Row{"ts2", `a,"b"`})
	require.Nil(t, err)

	assert.Equal(t, "timestamp,model\nts1,I-9PSL\nts2,\"a,\"\"b\"\"\"\n", readFile(t, path))
}

func TestCSVFile_ReadHeaderLine(t *testing.T) {
	t.Parallel()

	t.Run("empty file should return empty line", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "airgradient.csv")
		require.Nil(t, os.WriteFile(path, nil, 0644))

		f, _ := NewCSVFile(path)
		line, err := f.ReadHeaderLine()
		assert.Nil(t, err)
		assert.Empty(t, line)
	})
	t.Run("header without line break should work", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "airgradient.csv")
		require.Nil(t, os.WriteFile(path, []byte("timestamp,atmp"), 0644))

		f, _ := NewCSVFile(path)
		line, err := f.ReadHeaderLine()
		assert.Nil(t, err)
		assert.Equal(t, "timestamp,atmp", line)
	})
	t.Run("missing file should error", func(t *testing.T) {
		t.Parallel()

		f, _ := NewCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
		_, err := f.ReadHeaderLine()
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestCSVFile_ExistsOnDirectory(t *testing.T) {
	t.Parallel()

	f, _ := NewCSVFile(t.TempDir())
	exists, err := f.Exists()
	assert.False(t, exists)
	assert.ErrorContains(t, err, "is a directory")
}

func TestCSVFile_CreatedHeaderShouldBeReadBack(t *testing.T) {
	t.Parallel()

	records := map[string]common.Record{
		"plain fields":        {"serialno": "A1", "atmp": "21.5", "rhum": "40"},
		"empty key":           {"": "1", "atmp": "21.5"},
		"key with line break": {"a\nb": "1", "c\r\nd": "2", "atmp": "21.5"},
		"key needing quotes":  {"pm,02": "1", `say "hi"`: "2", " lead": "3"},
	}

	for name, record := range records {
		record := record
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			columns, err := schema.DeriveSchema(record)
			require.Nil(t, err)

			path := filepath.Join(t.TempDir(), "airgradient.csv")
			f, _ := NewCSVFile(path)
			err = f.Create(columns, schema.Project(record, columns, "ts0"))
			require.Nil(t, err)

			line, err := f.ReadHeaderLine()
			require.Nil(t, err)

			readBack, err := schema.ReadSchema(line)
			require.Nil(t, err)
			assert.Equal(t, columns, readBack)
		})
	}
}
