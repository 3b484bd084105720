package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/modora-posts-service/internal/domain"
)

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(domain.NewDocument())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"posts\": []\n}", string(data))
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	doc := domain.NewDocument()
	doc.Posts = append(doc.Posts, domain.Post{ID: "p1", Content: "<b>me & you</b>"})
	doc.Normalize()

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content": "<b>me & you</b>"`)
	assert.NotContains(t, string(data), `<`)
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`{"posts":null}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Posts)
	assert.Empty(t, doc.Posts)

	doc, err = Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Posts)

	_, err = Decode([]byte(`{"posts":`))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	doc := domain.NewDocument()
	doc.Posts = append(doc.Posts, domain.Post{
		ID:        "p1",
		Content:   "hello",
		CreatedAt: domain.NewTimestamp(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
	})
	doc.Normalize()

	data, err := Encode(doc)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	again, err := Encode(back)
	require.NoError(t, err)

	assert.Equal(t, string(data), string(again))
	assert.Contains(t, string(data), `"createdAt": "2024-05-01T10:00:00.000Z"`)
}

func TestEncode_LineSeparatorsStayRaw(t *testing.T) {
	doc := domain.NewDocument()
	doc.Posts = append(doc.Posts, domain.Post{ID: "p1", Content: "a\u2028b\u2029c \\u2028"})
	doc.Normalize()

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"content\": \"a\u2028b\u2029c \\\\u2028\"")

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Posts[0].Content, back.Posts[0].Content)
}

func TestRoundTrip_NullTitle(t *testing.T) {
	raw := "{\n  \"posts\": [\n    {\n      \"id\": \"p1\",\n      \"userId\": \"u1\",\n      \"username\": \"bob\",\n" +
		"      \"title\": null,\n      \"content\": \"x\",\n      \"tags\": [],\n      \"lenses\": [],\n" +
		"      \"interpretations\": [],\n      \"comments\": [],\n      \"createdAt\": \"2024-05-01T10:00:00.000Z\",\n" +
		"      \"upvotes\": 0,\n      \"downvotes\": 0,\n      \"isAnonymous\": false\n    }\n  ]\n}"

	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Nil(t, doc.Posts[0].Title)

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, raw, string(data))
}

func TestUnescapeLineSeparators(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nothing to do", `"plain"`, `"plain"`},
		{"line separator", `"a\u2028b"`, "\"a\u2028b\""},
		{"paragraph separator", `"a\u2029b"`, "\"a\u2029b\""},
		{"escaped backslash", `"\\u2028"`, `"\\u2028"`},
		{"other escapes", `"\n\u00e9\u2027"`, `"\n\u00e9\u2027"`},
		{"trailing backslash", `\`, `\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(unescapeLineSeparators([]byte(tt.in))))
		})
	}
}
