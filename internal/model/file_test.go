package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParentID_UnmarshalNormalizesRoot(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ParentID
	}{
		{"number zero", `{"parentId":0}`, RootParentID},
		{"string zero", `{"parentId":"0"}`, RootParentID},
		{"empty string", `{"parentId":""}`, RootParentID},
		{"null", `{"parentId":null}`, RootParentID},
		{"absent", `{}`, RootParentID},
		{"id", `{"parentId":"5f1e7d35-0e1b-4a5e-9d6f-1f0bb8ad1a11"}`, ParentID("5f1e7d35-0e1b-4a5e-9d6f-1f0bb8ad1a11")},
		{"non zero number", `{"parentId":12}`, ParentID("12")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				ParentID ParentID `json:"parentId"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.in), &body))
			assert.Equal(t, tc.want, body.ParentID)
		})
	}
}

func TestParentID_MarshalRootAsZero(t *testing.T) {
	b, err := json.Marshal(FileResponse{ID: "a", ParentID: RootParentID})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"parentId":0`)

	b, err = json.Marshal(FileResponse{ID: "a", ParentID: "p1"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"parentId":"p1"`)
}

func TestParseParentID(t *testing.T) {
	assert.True(t, ParseParentID("").IsRoot())
	assert.True(t, ParseParentID(" 0 ").IsRoot())
	assert.Equal(t, ParentID("abc"), ParseParentID("abc"))
}

func TestFile_ResponseHidesStoragePath(t *testing.T) {
	path := "/tmp/files/x"
	f := &File{ID: "1", UserID: "u", Name: "a.png", Type: FileTypeImage, StoragePath: &path}

	b, err := json.Marshal(f.Response())
	require.NoError(t, err)
	assert.NotContains(t, string(b), path)
	assert.Equal(t, "/tmp/files/x_250", f.ThumbnailPath(250))
}

func TestIsFileType(t *testing.T) {
	assert.True(t, IsFileType("folder"))
	assert.True(t, IsFileType("image"))
	assert.False(t, IsFileType("video"))
}
