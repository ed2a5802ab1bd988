package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadText(t *testing.T) {
	got, err := readText(strings.NewReader("from stdin"), "", []string{"call", "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "call 9876543210", got)

	path := filepath.Join(t.TempDir(), "msg.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
	got, err = readText(strings.NewReader("from stdin"), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = readText(strings.NewReader("from stdin"), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readText(nil, filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		textFile, pretty = "", false
	})
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestRootExtractsText(t *testing.T) {
	var rec map[string][]string
	require.NoError(t, json.Unmarshal(execute(t, "Write to fraud.desk@gmail.com today"), &rec))
	assert.Equal(t, []string{"fraud.desk@gmail.com"}, rec["emails"])
	assert.Empty(t, rec["upiIds"])
}

func TestScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"sessionId": "cli-1",
		"message": {"sender": "scammer", "text": "Pay to Rahul.Sharma@okaxis immediately"},
		"conversationHistory": [
			{"sender": "scammer", "text": "Your KYC is pending"},
			{"sender": "user", "text": "What should I do?"}
		]
	}`), 0o600))

	var result struct {
		SessionID    string              `json:"sessionId"`
		Messages     int                 `json:"messages"`
		Reply        string              `json:"reply"`
		Intelligence map[string][]string `json:"intelligence"`
		Report       struct {
			ScamDetected           bool   `json:"scamDetected"`
			TotalMessagesExchanged int    `json:"totalMessagesExchanged"`
			ScamType               string `json:"scamType"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(execute(t, "scan", path, "--pretty"), &result))

	assert.Equal(t, "cli-1", result.SessionID)
	assert.Equal(t, 3, result.Messages)
	assert.NotEmpty(t, result.Reply)
	assert.Equal(t, []string{"rahul.sharma@okaxis"}, result.Intelligence["upiIds"])
	assert.True(t, result.Report.ScamDetected)
	assert.Equal(t, 4, result.Report.TotalMessagesExchanged)
}
