package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"sstab/utils"
)

func captureLogs(t *testing.T) *test.Hook {
	t.Helper()
	inner, hook := test.NewNullLogger()
	inner.SetLevel(logrus.DebugLevel)
	prev := utils.L()
	utils.SetLogger(utils.NewLogger(inner))
	t.Cleanup(func() { utils.SetLogger(prev) })
	return hook
}

const sampleLog = `time:1000000000 cubic rtt:15.5 cwnd:10 lost:0.5%
garbage without timestamp

time:2000000000 bbr:(bw:12.5Mbps,mrtt:0.2,pacing_gain:1) rtt:16 state:ESTAB
time:4000000000 delivery_rate:98.1Mbps cwnd:12
`

func writeLog(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	w, err := utils.CreateOutput(path)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func testConfig() *utils.Config {
	cfg := utils.DefaultConfig()
	cfg.Parse.Workers = 2
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
