package pagefile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	aw, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, aw.Append([]byte(`{"next_page":"a","items":[{"x":1}]}`)))
	require.NoError(t, aw.Append([]byte(`{"items":[]}`)))
	assert.Equal(t, 2, aw.Count())
	require.NoError(t, aw.Close())
	require.NoError(t, aw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["next_page"])
	assert.Contains(t, string(data), "[\n{\n  \"next_page\": \"a\",")
}

func TestArrayWriter_PrefixBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	aw, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, aw.Append([]byte(`{"items":[1]}`)))

	// the on-disk prefix only needs the closing bracket
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []any
	require.NoError(t, json.Unmarshal(append(data, []byte("\n]")...), &got))
	assert.Len(t, got, 1)

	require.NoError(t, aw.Close())
}

func TestArrayWriter_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	aw, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, aw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Empty(t, got)
}

func TestArrayWriter_Rejects(t *testing.T) {
	aw, err := Create(filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)
	assert.Error(t, aw.Append([]byte(`{broken`)))
	require.NoError(t, aw.Close())
	assert.Error(t, aw.Append([]byte(`{}`)))
}

func TestReadArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"a":1},{"a":2}]`), 0o644))

	elems, err := ReadArray(path)
	require.NoError(t, err)
	require.Len(t, elems, 2)
	assert.Equal(t, int64(2), elems[1].Get("a").Int())

	obj := filepath.Join(dir, "obj.json")
	require.NoError(t, os.WriteFile(obj, []byte(`{"a":1}`), 0o644))
	_, err = ReadArray(obj)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"a":1}`), 0o644))
	_, err = ReadArray(bad)
	assert.Error(t, err)

	_, err = ReadArray(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWriteArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.json")
	require.NoError(t, WriteArray(path, [][]byte{[]byte(`{"a":1}`), []byte(`{"a":2}`)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"a\": 1\n  },\n  {\n    \"a\": 2\n  }\n]\n", string(data))
}

// flakyFile is an in-memory file whose failOn-th write lands half its bytes and errors.
type flakyFile struct {
	buf    []byte
	pos    int64
	calls  int
	failOn map[int]bool
}

func (f *flakyFile) Write(p []byte) (int, error) {
	f.calls++
	n := len(p)
	var err error
	if f.failOn[f.calls] {
		n, err = len(p)/2, errors.New("disk full")
	}
	f.buf = append(f.buf[:f.pos], p[:n]...)
	f.pos = int64(len(f.buf))
	return n, err
}

func (f *flakyFile) Seek(offset int64, whence int) (int64, error) {
	f.pos = offset
	return offset, nil
}

func (f *flakyFile) Truncate(size int64) error {
	f.buf = f.buf[:size]
	return nil
}

func (f *flakyFile) Close() error { return nil }

func TestArrayWriter_FailedAppendKeepsArrayValid(t *testing.T) {
	tests := []struct {
		name   string
		failOn map[int]bool
		want   []string
	}{
		// call 1 is the opening bracket
		{"second element fails", map[int]bool{3: true}, []string{"a", "c"}},
		{"first element fails", map[int]bool{2: true}, []string{"b", "c"}},
		{"every element fails", map[int]bool{2: true, 3: true, 4: true}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flakyFile{failOn: tt.failOn}
			aw, err := newArrayWriter(f)
			require.NoError(t, err)

			for _, id := range []string{"a", "b", "c"} {
				err := aw.Append([]byte(`{"id":"` + id + `","items":[1,2]}`))
				if tt.failOn[f.calls] {
					assert.Error(t, err)
				} else {
					assert.NoError(t, err)
				}
			}
			assert.Equal(t, len(tt.want), aw.Count())
			require.NoError(t, aw.Close())

			var got []map[string]any
			require.NoError(t, json.Unmarshal(f.buf, &got), string(f.buf))
			ids := make([]string, 0, len(got))
			for _, g := range got {
				ids = append(ids, g["id"].(string))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
