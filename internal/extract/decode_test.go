package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder("")
	require.NoError(t, err)
	return d
}

func TestDecode_UTF8Unchanged(t *testing.T) {
	d := newTestDecoder(t)

	in := "  line one\r\nlíne twø ✓\n\n"
	got, err := d.Decode([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestDecode_Empty(t *testing.T) {
	got, err := newTestDecoder(t).Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	got, err := newTestDecoder(t).Decode([]byte("\xEF\xBB\xBFa,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", got)
}

func TestDecode_UTF16WithBOM(t *testing.T) {
	got, err := newTestDecoder(t).Decode([]byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestDecode_Windows1252Fallback(t *testing.T) {
	// 0xE9 is é and 0x80 is € in windows-1252; neither is valid UTF-8 here.
	got, err := newTestDecoder(t).Decode([]byte("caf\xe9 \x80 5"))
	require.NoError(t, err)
	assert.Equal(t, "café € 5", got)
}

func TestDecode_BinaryContent(t *testing.T) {
	_, err := newTestDecoder(t).Decode([]byte{0x00, 0xFF, 0x10, 0xC3})
	assert.ErrorIs(t, err, ErrBinaryContent)
}

func TestNewDecoder_Labels(t *testing.T) {
	d, err := NewDecoder("latin1")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", d.Name())

	d, err = NewDecoder("ISO-8859-15")
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-15", d.Name())
}

func TestNewDecoder_Unknown(t *testing.T) {
	_, err := NewDecoder("klingon-8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fallback encoding")
}
