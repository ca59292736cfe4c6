package encoding_test

import (
	"io"
	"strings"
	"testing"

	"github.com/filecoin-project/go-powersim/internal/encoding"
	"github.com/stretchr/testify/require"
	cbg "github.com/whyrusleeping/cbor-gen"
)

var (
	_ cbg.CBORMarshaler   = (*testValue)(nil)
	_ cbg.CBORUnmarshaler = (*testValue)(nil)
)

type testValue struct {
	Value string
}

func (m *testValue) MarshalCBOR(w io.Writer) error {
	return cbg.WriteByteArray(w, []byte(m.Value))
}

func (m *testValue) UnmarshalCBOR(r io.Reader) error {
	data, err := cbg.ReadByteArray(r, cbg.MaxLength)
	if err != nil {
		return err
	}
	m.Value = string(data)
	return err
}

func TestCodecs(t *testing.T) {
	zstdCodec, err := encoding.NewZSTD[*testValue]()
	require.NoError(t, err)

	for _, test := range []struct {
		name    string
		subject encoding.EncodeDecoder[*testValue]
	}{
		{"cbor", encoding.NewCBOR[*testValue]()},
		{"zstd", zstdCodec},
	} {
		t.Run(test.name, func(t *testing.T) {
			for _, value := range []string{"", "fish", strings.Repeat("lobster", 100)} {
				data := &testValue{Value: value}
				encoded, err := test.subject.Encode(data)
				require.NoError(t, err)
				decoded := &testValue{}
				require.NoError(t, test.subject.Decode(encoded, decoded))
				require.Equal(t, data.Value, decoded.Value)
			}
		})
	}
}

func TestZSTD_Compresses(t *testing.T) {
	subject, err := encoding.NewZSTD[*testValue]()
	require.NoError(t, err)
	data := &testValue{Value: strings.Repeat("lobster", 1000)}
	encoded, err := subject.Encode(data)
	require.NoError(t, err)
	require.Less(t, len(encoded), len(data.Value))
}

func TestZSTD_RejectsGarbage(t *testing.T) {
	subject, err := encoding.NewZSTD[*testValue]()
	require.NoError(t, err)
	require.Error(t, subject.Decode([]byte("not zstd"), &testValue{}))
}
