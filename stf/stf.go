package stf

import (
	"bufio"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/gorjmc"
)

const (
	lzwLitwidth int = 8
)

// Table is one set of records read from a file.
type Table struct {
	Name      string
	Iteration int
	Records   [][]float64
}

// Write!

// Writer writes tables of records to an STF file.
type Writer struct {
	f         *os.File
	h         io.WriteCloser
	filename  string
	writeable bool
	prec      int
	id        uuid.UUID
}

// NewWriter creates the file name and writes the header to it. The key "prec" of the header
// sets the number of significant digits of the values. The "id" key is always set by the writer.
func NewWriter(name string, header map[string]string) (*Writer, error) {
	S := new(Writer)
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.filename = name
	var AnyNewWriter func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, gzip.BestCompression) }
	default:
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		}
	}
	S.h, err = AnyNewWriter(S.f)
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't create compressor " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.prec = -1
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec != 0 {
			S.prec = prec
		} else {
			log.Printf("Invalid precision for file %s. Will use the default", S.filename)
		}
	}
	S.id = uuid.New()
	h := map[string]string{"id": S.id.String(), "prec": strconv.Itoa(S.prec)}
	for k, v := range header {
		if k != "id" && k != "prec" {
			h[k] = v
		}
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, h[k])
	}
	b.WriteString("**\n")
	if _, err := S.h.Write([]byte(b.String())); err != nil {
		return nil, Error{"Can't write header " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.writeable = true
	return S, nil
}

// ID returns the identifier written in the header of the file.
func (S *Writer) ID() uuid.UUID {
	return S.id
}

// WriteRecords writes the records as a table. All records must have the same length.
func (S *Writer) WriteRecords(name string, iteration int, records [][]float64) error {
	if !S.writeable {
		return Error{UnIniWrite, S.filename, []string{"WriteRecords"}, true}
	}
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return Error{fmt.Sprintf("Invalid table name '%s'", name), S.filename, []string{"WriteRecords"}, true}
	}
	var cols int
	if len(records) > 0 {
		cols = len(records[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "> %s %d %d %d\n", name, iteration, len(records), cols)
	for i, r := range records {
		if len(r) != cols {
			return Error{fmt.Sprintf("Record %d of table %s has %d values, expected %d", i, name, len(r), cols), S.filename, []string{"WriteRecords"}, true}
		}
		for j, v := range r {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', S.prec, 64))
		}
		b.WriteByte('\n')
	}
	b.WriteString("*\n")
	if _, err := S.h.Write([]byte(b.String())); err != nil {
		return Error{"Can't write table " + err.Error(), S.filename, []string{"WriteRecords"}, true}
	}
	return nil
}

// Close flushes and closes the file. The writer can't be used after this call.
func (S *Writer) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.h.Close()
	err2 := S.f.Close()
	if err == nil {
		err = err2
	}
	if err != nil {
		return Error{"Can't close file " + err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

// Read!

// Reader reads the tables of an STF file, in order.
type Reader struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	filename string
	readable bool
}

// zstd.Decoder doesn't implement io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// New opens an STF file for reading, and returns the reader and the header of the file.
func New(name string) (*Reader, map[string]string, error) {
	S := new(Reader)
	var err error
	S.filename = name
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	var AnyNewReader func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	default:
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdCloser{r}, nil
		}
	}
	S.dec, err = AnyNewReader(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.close()
			return nil, nil, Error{"Malformed header line: " + str, name, []string{"New"}, true}
		}
		m[k] = v
	}
	S.readable = true
	return S, m, nil
}

// Readable returns true if it is possible to call Next on the reader.
func (S *Reader) Readable() bool {
	return S.readable
}

// Next reads the next table of the file. At the end of the file, it closes the reader
// and returns an error that implements chem.LastFrameError.
func (S *Reader) Next() (*Table, error) {
	if !S.readable {
		return nil, Error{UnIniRead, S.filename, []string{"Next"}, true}
	}
	str, err := S.h.ReadString('\n')
	if err == io.EOF && str == "" {
		S.Close()
		return nil, newLastFrameError(S.filename, "Next")
	}
	if err != nil {
		return nil, Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
	}
	f := strings.Fields(str)
	if len(f) != 5 || f[0] != ">" {
		return nil, Error{WrongFormat + ": " + str, S.filename, []string{"Next"}, true}
	}
	var ints [3]int
	for i, v := range f[2:] {
		ints[i], err = strconv.Atoi(v)
		if err != nil {
			return nil, Error{WrongFormat + ": " + str, S.filename, []string{"Next"}, true}
		}
	}
	T := &Table{Name: f[1], Iteration: ints[0], Records: make([][]float64, ints[1])}
	for i := range T.Records {
		line, err := S.h.ReadString('\n')
		if err != nil {
			return nil, Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		fields := strings.Fields(line)
		if len(fields) != ints[2] {
			return nil, Error{fmt.Sprintf("%s: %d values in record %d of table %s, expected %d", WrongFormat, len(fields), i, T.Name, ints[2]), S.filename, []string{"Next"}, true}
		}
		T.Records[i] = make([]float64, len(fields))
		for j, v := range fields {
			T.Records[i][j], err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, Error{fmt.Sprintf("Can't parse value %d (%s) of table %s. Error: %s", j, v, T.Name, err.Error()), S.filename, []string{"Next"}, true}
			}
		}
	}
	end, err := S.h.ReadString('\n')
	if err != nil || !strings.HasPrefix(end, "*") {
		return nil, Error{"Can't read the table termination mark", S.filename, []string{"Next"}, true}
	}
	return T, nil
}

// ReadAll reads the remaining tables of the file, and closes the reader.
func (S *Reader) ReadAll() ([]*Table, error) {
	ret := make([]*Table, 0, 10)
	for {
		t, err := S.Next()
		if err != nil {
			if _, ok := err.(chem.LastFrameError); ok {
				return ret, nil
			}
			S.Close()
			return ret, err
		}
		ret = append(ret, t)
	}
}

func (S *Reader) close() {
	S.dec.Close()
	S.f.Close()
}

// Close closes the file, and marks the reader as unreadable.
func (S *Reader) Close() {
	if !S.readable {
		return
	}
	S.close()
	S.readable = false
}

//Errors

// Error is the error type for STF files. It fulfills chem.Error.
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing reader or writer was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	UnIniRead     = "Reader uninitialized"
	UnIniWrite    = "Writer uninitialized or closed"
	ReadError     = "Error reading table"
	UnableToOpen  = "Unable to open file"
	WrongFormat   = "Wrong format in the STF file or table"
)

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "stf" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
