package detect

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	input := `{"host":"a","port":22,"body":"SSH-2.0\r\n"}

{"host":"b","port":"8080","body":"HTTP/1.1 200 OK"}
`
	records, err := ReadRecords(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{Host: "a", Port: 22, Body: []byte("SSH-2.0\r\n")}, records[0])
	assert.Equal(t, uint16(8080), records[1].Port)
}

func TestReadRecords_PortBounds(t *testing.T) {
	input := `{"host":"a","port":0}
{"host":"b","port":65535}
{"host":"c","port":"010"}
{"host":"d","port":21.0}
`
	records, err := ReadRecords(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, uint16(0), records[0].Port)
	assert.Equal(t, uint16(65535), records[1].Port)
	assert.Equal(t, uint16(10), records[2].Port)
	assert.Equal(t, uint16(21), records[3].Port)
}

func TestReadRecords_BinaryBody(t *testing.T) {
	// "\xff\xfeS/1.2\"" base64 encoded
	input := `{"host":"a","port":1,"body_b64":"//5TLzEuMiI="}`
	records, err := ReadRecords(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("\xff\xfeS/1.2\""), records[0].Body)
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(`{"host":"a","port":"http"}`), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadRecords(strings.NewReader("{not json"), 0)
	require.Error(t, err)

	for _, port := range []string{`70000`, `"65536"`, `-1`, `22.7`, `"22.7"`, `null`, `true`} {
		_, err = ReadRecords(strings.NewReader(`{"host":"a","port":`+port+`}`), 0)
		assert.Error(t, err, "port %s", port)
	}

	_, err = ReadRecords(strings.NewReader(`{"host":"a","port":1,"body":"x","body_b64":"eA=="}`), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	_, err = ReadRecords(strings.NewReader("{\"host\":\"a\",\"port\":1}\n{\"host\":\"b\",\"port\":2}\n"), 1)
	assert.ErrorIs(t, err, ErrTooManyRecords)
}

func TestBatch_PreservesOrder(t *testing.T) {
	d, _ := newTestDetector(t, semverDef("S", "S/", false, "1.0.0", "1.9.9", "legacy", "2.0.0", "2.9.9", "current"))

	records := []Record{
		{Host: "h1", Port: 1, Body: []byte(`S/1.1"`)},
		{Host: "h2", Port: 2, Body: []byte("nothing here")},
		{Host: "h3", Port: 3, Body: []byte(`S/2.2"`)},
	}
	out, err := d.Batch(context.Background(), records, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.Len(t, out[0], 1)
	assert.Equal(t, "legacy", out[0][0].Description)
	assert.Equal(t, "h1", out[0][0].Host)
	assert.Empty(t, out[1])
	require.Len(t, out[2], 1)
	assert.Equal(t, "current", out[2][0].Description)
}

func TestBatch_Canceled(t *testing.T) {
	d, _ := newTestDetector(t, tableDef("S", "S", true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Batch(ctx, []Record{{Host: "h", Body: []byte("S")}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
