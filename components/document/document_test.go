package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRecordText(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{name: "string", record: Record{"text": "hello"}, want: "hello"},
		{name: "missing", record: Record{"url": "x"}, want: ""},
		{name: "not a string", record: Record{"text": 42.0}, want: ""},
		{name: "null", record: Record{"text": nil}, want: ""},
		{name: "nil record", record: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Text())
		})
	}
}

func TestRecordClone(t *testing.T) {
	orig := Record{"text": "a", "url": "u"}
	clone := orig.Clone()
	clone["url"] = "changed"
	assert.Equal(t, "u", orig["url"])
	assert.NotNil(t, Record(nil).Clone())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		want    Format
		wantErr error
	}{
		{name: "json array", file: "data.json", data: `[{"text":"a"},{"text":"b"}]`, want: FormatJSON},
		{name: "jsonl extension", file: "data.jsonl", data: `{"text":"a"}`, want: FormatJSONLines},
		{name: "ndjson content", file: "data.txt", data: "{\"text\":\"a\"}\n{\"text\":\"b\"}\n", want: FormatJSONLines},
		{name: "binary", file: "data.json", data: "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR", wantErr: ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file, []byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("Should decode an array keeping extra fields", func(t *testing.T) {
		records, err := Decode([]byte(`[{"text":"a","url":"u1"},{"title":"no text"}]`), FormatJSON)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "a", records[0].Text())
		assert.Equal(t, "u1", records[0]["url"])
		assert.Equal(t, "", records[1].Text())
	})

	t.Run("Should decode an empty array", func(t *testing.T) {
		records, err := Decode([]byte(` [] `), FormatJSON)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Should decode json lines with blank lines", func(t *testing.T) {
		records, err := Decode([]byte("{\"text\":\"a\"}\n\n{\"text\":\"b\"}\n"), FormatJSONLines)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "b", records[1].Text())
	})

	t.Run("Should reject malformed input", func(t *testing.T) {
		_, err := Decode([]byte(`[{"text":"a"`), FormatJSON)
		assert.Error(t, err)

		_, err = Decode([]byte("{\"text\":\"a\"}\nnot json\n"), FormatJSONLines)
		assert.Error(t, err)
	})

	t.Run("Should reject non object elements", func(t *testing.T) {
		_, err := Decode([]byte(`["a","b"]`), FormatJSON)
		assert.Error(t, err)
	})

	t.Run("Should keep numbers exact", func(t *testing.T) {
		for _, format := range []Format{FormatJSON, FormatJSONLines} {
			data := `{"text":"a","id":12345678901234567890,"n":9007199254740993,"score":0.1}`
			if format == FormatJSON {
				data = "[" + data + "]"
			}
			records, err := Decode([]byte(data), format)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, json.Number("12345678901234567890"), records[0]["id"])
			assert.Equal(t, json.Number("9007199254740993"), records[0]["n"])

			bs, err := json.Marshal(records[0])
			require.NoError(t, err)
			assert.Contains(t, string(bs), `"id":12345678901234567890`)
			assert.Contains(t, string(bs), `"n":9007199254740993`)
			assert.Contains(t, string(bs), `"score":0.1`)
		}
	})

	t.Run("Should reject data after the array", func(t *testing.T) {
		_, err := Decode([]byte(`[{"text":"a"}] {"text":"b"}`), FormatJSON)
		assert.Error(t, err)
	})

	t.Run("Should reject empty input", func(t *testing.T) {
		_, err := Decode([]byte("  \n"), FormatJSON)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()

	src, err := NewFile(writeFile(t, "scraped_20240101.json", `[{"text":"hello"},{"text":"world"}]`))
	require.NoError(t, err)
	assert.Equal(t, "scraped_20240101.json", src.Name())
	assert.Equal(t, "file", src.Meta()["source"])

	records, err := Load(ctx, src)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "world", records[1].Text())

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewFile(t.TempDir())
	assert.Error(t, err)
}

func TestLoadHttp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dump.jsonl" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("{\"text\":\"a\"}\n{\"text\":\"b\"}\n{\"text\":\"c\"}\n"))
	}))
	defer srv.Close()

	ctx := context.Background()
	opener := Opener{HTTPClient: srv.Client()}

	src, err := opener.Source(srv.URL + "/dump.jsonl")
	require.NoError(t, err)
	records, err := Load(ctx, src)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	src, err = opener.Source(srv.URL + "/missing.json")
	require.NoError(t, err)
	_, err = Load(ctx, src)
	assert.ErrorContains(t, err, "status 404")
}

type fakeS3 struct {
	objects map[string]string
	inputs  []*s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestLoadS3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"scrapes/2024/data_20240101.json": `[{"text":"from s3"}]`,
	}}
	opener := Opener{S3Client: client}

	src, err := opener.Source("s3://scrapes/2024/data_20240101.json")
	require.NoError(t, err)
	assert.Equal(t, "data_20240101.json", src.Name())

	records, err := Load(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "from s3", records[0].Text())
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "2024/data_20240101.json", aws.ToString(client.inputs[0].Key))

	src, err = opener.Source("s3://scrapes/missing.json")
	require.NoError(t, err)
	_, err = Load(context.Background(), src)
	assert.ErrorContains(t, err, "NoSuchKey")

	_, err = Opener{}.Source("s3://scrapes/data.json")
	assert.Error(t, err)
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{uri: "s3://bucket/a/b.json", wantBucket: "bucket", wantKey: "a/b.json"},
		{uri: "s3://bucket", wantBucket: "bucket", wantKey: ""},
		{uri: "s3://bucket/prefix/", wantBucket: "bucket", wantKey: "prefix/"},
		{uri: "s3:///key", wantErr: true},
		{uri: "gs://bucket/key", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidS3URI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestHTML2MDParser(t *testing.T) {
	got, err := ParseString(context.Background(), NewHTML2MDParser(), "<h1>Title</h1><p>Hello <b>world</b></p>")
	require.NoError(t, err)
	assert.Contains(t, got, "# Title")
	assert.Contains(t, got, "**world**")
	assert.NotContains(t, got, "<p>")
}

func TestHTMLTextParser(t *testing.T) {
	html := `<html><head><title>ignored</title><style>p{color:red}</style></head>
<body>
  <h1>Title</h1>
  <script>var tracking = 1;</script>
  <p>Hello    <b>world</b></p>
</body></html>`
	got, err := ParseString(context.Background(), NewHTMLTextParser(), html)
	require.NoError(t, err)
	assert.Equal(t, "Title\nHello world", got)
}
