package decode

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEventData(t *testing.T) {
	t.Run("collects payloads from both markers in log order", func(t *testing.T) {
		first := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02})
		second := base64.StdEncoding.EncodeToString([]byte{0x03})

		buffers, lineErrs := ExtractEventData([]string{
			"Program 11111111111111111111111111111111 invoke [1]",
			"Program log: " + first,
			"Program consumption: 149477 units remaining",
			"Program data: " + second,
			"Program 11111111111111111111111111111111 success",
		})

		require.Empty(t, lineErrs)
		require.Len(t, buffers, 2)
		assert.Equal(t, []byte{0x01, 0x02}, buffers[0])
		assert.Equal(t, []byte{0x03}, buffers[1])
	})

	t.Run("non-candidate lines are ignored silently", func(t *testing.T) {
		buffers, lineErrs := ExtractEventData([]string{
			"Program 11111111111111111111111111111111 invoke [1]",
			"Program 11111111111111111111111111111111 success",
		})

		assert.Empty(t, buffers)
		assert.Empty(t, lineErrs)
	})

	t.Run("malformed candidate payloads are reported per line", func(t *testing.T) {
		valid := base64.StdEncoding.EncodeToString([]byte{0x09})

		buffers, lineErrs := ExtractEventData([]string{
			"Program log: Instruction: FillPerpOrder",
			"Program data: " + valid,
		})

		require.Len(t, buffers, 1)
		assert.Equal(t, []byte{0x09}, buffers[0])

		require.Len(t, lineErrs, 1)
		assert.Equal(t, 0, lineErrs[0].Line)
		assert.ErrorIs(t, lineErrs[0], ErrTransportDecode)
	})

	t.Run("one bad line never discards the others", func(t *testing.T) {
		valid := base64.StdEncoding.EncodeToString([]byte{0x07, 0x08})

		buffers, lineErrs := ExtractEventData([]string{
			"Program data: " + valid,
			"Program data: %%%not-base64%%%",
			"Program data: " + valid,
		})

		require.Len(t, buffers, 2)
		require.Len(t, lineErrs, 1)
		assert.Equal(t, 1, lineErrs[0].Line)
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		buffers, lineErrs := ExtractEventData(nil)
		assert.Empty(t, buffers)
		assert.Empty(t, lineErrs)
	})
}
