package form

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddresses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, SplitAddresses("a@x.com, b@x.com ,, "))
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, SplitAddresses("a@x.com;b@x.com"))
	assert.Empty(t, SplitAddresses(" , ; "))
	assert.Empty(t, SplitAddresses(""))
}

func TestSubmission_UnmarshalKeepsOrder(t *testing.T) {
	t.Parallel()

	raw := `{
		"zeta":  {"label": "Zeta", "type": "text", "value": "last letter"},
		"alpha": {"label": "Alpha", "type": "checkbox", "value": ["a", "b"]},
		"count": {"label": "Count", "type": "number", "value": 42}
	}`

	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))
	require.Len(t, sub, 3)

	assert.Equal(t, "zeta", sub[0].Name)
	assert.Equal(t, "alpha", sub[1].Name)
	assert.Equal(t, "count", sub[2].Name)
	assert.Equal(t, "42", sub.Value("count"))

	list, ok := sub[1].List()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)
}

func TestSubmission_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	var sub Submission
	err := json.Unmarshal([]byte(`{"a":{"value":"1"},"a":{"value":"2"}}`), &sub)
	assert.Error(t, err)
}

func TestSubmission_MarshalRoundTripOrder(t *testing.T) {
	t.Parallel()

	sub := Submission{
		{Name: "b", Label: "B", Type: KindText, Value: "2"},
		{Name: "a", Label: "A", Type: KindText, Value: "1"},
	}
	out, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":{"label":"B","type":"text","value":"2"},"a":{"label":"A","type":"text","value":"1"}}`, string(out))
	assert.Less(t, strings.Index(string(out), `"b"`), strings.Index(string(out), `"a"`))
}

func TestDecodeAttachment(t *testing.T) {
	t.Parallel()

	att, ok := DecodeAttachment(`{"name":"cv.pdf","filePath":"/tmp/cv.pdf"}`)
	require.True(t, ok)
	assert.Equal(t, "cv.pdf", att.Name)
	assert.Equal(t, "/tmp/cv.pdf", att.FilePath)

	_, ok = DecodeAttachment("")
	assert.False(t, ok)
	_, ok = DecodeAttachment("not json")
	assert.False(t, ok)
	_, ok = DecodeAttachment("{}")
	assert.False(t, ok)
	_, ok = DecodeAttachment([]any{"x"})
	assert.False(t, ok)
}
