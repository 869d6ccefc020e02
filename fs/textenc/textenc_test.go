package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobimo/brackets/errors"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "utf8", "UTF-8", "latin1", "utf-16le"} {
		t.Run(name, func(t *testing.T) {
			enc, err := Lookup(name)
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}

	_, err := Lookup("klingon")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedEncoding, errors.GetCode(err))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		data     []byte
		want     string
	}{
		{"utf8", "utf8", []byte("héllo"), "héllo"},
		{"default", "", []byte("plain"), "plain"},
		{"utf8 bom stripped", "utf8", append([]byte{0xEF, 0xBB, 0xBF}, "x"...), "x"},
		{"latin1", "latin1", []byte{0x63, 0x61, 0x66, 0xE9}, "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.encoding, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_InvalidUTF8(t *testing.T) {
	_, err := Decode("utf8", []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedEncoding, errors.GetCode(err))
}

func TestEncode(t *testing.T) {
	data, err := Encode("latin1", "café")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x63, 0x61, 0x66, 0xE9}, data)

	data, err = Encode("utf8", "héllo")
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), data)
}

func TestEncode_Unrepresentable(t *testing.T) {
	_, err := Encode("latin1", "日本")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedEncoding, errors.GetCode(err))
}

func TestRoundTrip(t *testing.T) {
	for _, enc := range []string{"utf8", "latin1", "utf-16le", "shift_jis"} {
		t.Run(enc, func(t *testing.T) {
			text := "plain ascii text"
			data, err := Encode(enc, text)
			require.NoError(t, err)
			got, err := Decode(enc, data)
			require.NoError(t, err)
			assert.Equal(t, text, got)
		})
	}
}
