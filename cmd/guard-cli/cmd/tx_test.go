package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTx(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tx.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadTransaction(t *testing.T) {
	path := writeTx(t, `{"to":"0x00000000000000000000000000000000000000aa","value":"42","data":"0x01ff","operation":1}`)

	tx, err := loadTransaction(path)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xaa"), tx.To)
	assert.Equal(t, "42", tx.Value.String())
	assert.Equal(t, []byte{0x01, 0xff}, tx.Data)
	assert.EqualValues(t, 1, tx.Operation)
	assert.Equal(t, int64(0), tx.GasPrice.Int64())
}

func TestLoadTransaction_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad to":        `{"to":"nope"}`,
		"bad operation": `{"to":"0x00000000000000000000000000000000000000aa","operation":2}`,
		"bad value":     `{"to":"0x00000000000000000000000000000000000000aa","value":"-1"}`,
		"bad json":      `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadTransaction(writeTx(t, body))
			assert.Error(t, err)
		})
	}

	_, err := loadTransaction(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
