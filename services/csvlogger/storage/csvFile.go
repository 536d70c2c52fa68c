package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const filePermissions = 0o644

var log = logger.GetOrCreate("storage")

// csvFile is the append-only CSV output file. No handle is kept between calls, each write opens the file again.
type csvFile struct {
	path string
}

// NewCSVFile creates the storage component for the provided path
func NewCSVFile(path string) (*csvFile, error) {
	if len(path) == 0 {
		return nil, errors.New("empty output file path")
	}

	return &csvFile{
		path: path,
	}, nil
}

// Path returns the output file path
func (f *csvFile) Path() string {
	return f.path
}

// Exists returns true if the output file is present on disk
func (f *csvFile) Exists() (bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat output file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("output path %s is a directory", f.path)
	}

	return true, nil
}

// ReadHeaderLine returns the first line of the output file. An empty file returns an empty string.
func (f *csvFile) ReadHeaderLine() (string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to open output file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	line, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read header line: %w", err)
	}

	return line, nil
}

// Create writes a new file holding the header and the first row. It never overwrites: if the file already exists
// the returned error wraps os.ErrExist. A file left incomplete by a write error is removed.
func (f *csvFile) Create(header common.Schema, firstRow common.Row) error {
	err := prepareDirectories(f.path)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	err = writeRecords(file, header, firstRow)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		removeErr := os.Remove(f.path)
		if removeErr != nil {
			log.Error("failed to remove incomplete output file", "path", f.path, "error", removeErr)
		}

		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// Append adds one row at the end of the existing file. A missing trailing line break, left by an interrupted
// write, is added first so the new row starts on its own line. The file is never created here.
func (f *csvFile) Append(row common.Row) error {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_APPEND, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to open output file for append: %w", err)
	}

	err = appendRow(file, row)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	return nil
}

func appendRow(file *os.File, row common.Row) error {
	info, err := file.Stat()
	if err != nil {
		return err
	}

	if info.Size() > 0 {
		lastByte := make([]byte, 1)
		_, err = file.ReadAt(lastByte, info.Size()-1)
		if err != nil {
			return err
		}

		if lastByte[0] != '\n' {
			log.Warn("output file does not end with a line break, completing the last line", "size", info.Size())
			_, err = file.Write([]byte{'\n'})
			if err != nil {
				return err
			}
		}
	}

	return writeRecords(file, row)
}

func writeRecords(w io.Writer, records ...[]string) error {
	writer := csv.NewWriter(w)
	for _, record := range records {
		err := writer.Write(record)
		if err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

func prepareDirectories(path string) error {
	return os.MkdirAll(filepath.Dir(path), os.ModePerm)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (f *csvFile) IsInterfaceNil() bool {
	return f == nil
}
