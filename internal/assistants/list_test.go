package assistants

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// item is a minimal list element keyed by id.
type item struct {
	ID string `json:"id"`
}

func (i item) Cursor() string { return i.ID }

func TestList_Unmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIDs   []string
		wantFirst *string
		wantLast  *string
		wantMore  bool
	}{
		{
			name:      "explicit boundaries win",
			input:     `{"object":"list","data":[{"id":"a"},{"id":"b"}],"first_id":"x","last_id":"y","has_more":true}`,
			wantIDs:   []string{"a", "b"},
			wantFirst: ptr("x"),
			wantLast:  ptr("y"),
			wantMore:  true,
		},
		{
			name:      "boundaries derived when absent",
			input:     `{"object":"list","data":[{"id":"a"},{"id":"b"},{"id":"c"}],"has_more":false}`,
			wantIDs:   []string{"a", "b", "c"},
			wantFirst: ptr("a"),
			wantLast:  ptr("c"),
		},
		{
			name:      "boundaries derived when null",
			input:     `{"object":"list","data":[{"id":"a"}],"first_id":null,"last_id":null,"has_more":true}`,
			wantIDs:   []string{"a"},
			wantFirst: ptr("a"),
			wantLast:  ptr("a"),
			wantMore:  true,
		},
		{
			name:    "empty terminal page",
			input:   `{"object":"list","data":[],"first_id":null,"last_id":null,"has_more":false}`,
			wantIDs: []string{},
		},
		{
			name:     "empty page with explicit cursor",
			input:    `{"object":"list","data":[],"first_id":null,"last_id":"z","has_more":true}`,
			wantIDs:  []string{},
			wantLast: ptr("z"),
			wantMore: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page List[item]
			require.NoError(t, json.Unmarshal([]byte(tt.input), &page))

			ids := []string{}
			for _, it := range page.Data {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantFirst, page.FirstID)
			assert.Equal(t, tt.wantLast, page.LastID)
			assert.Equal(t, tt.wantMore, page.HasMore)
			assert.Equal(t, ListObject, page.Object)
		})
	}
}

func TestList_UnmarshalErrors(t *testing.T) {
	t.Run("empty page claiming more", func(t *testing.T) {
		input := `{"object":"list","data":[],"first_id":null,"last_id":null,"has_more":true}`
		err := json.Unmarshal([]byte(input), &List[item]{})
		assert.ErrorIs(t, err, ErrEmptyPage)
	})

	t.Run("missing data", func(t *testing.T) {
		var missingErr *MissingRequiredFieldError
		err := json.Unmarshal([]byte(`{"object":"list","has_more":false}`), &List[item]{})
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "data", missingErr.Field)
	})

	t.Run("missing has_more", func(t *testing.T) {
		var missingErr *MissingRequiredFieldError
		err := json.Unmarshal([]byte(`{"object":"list","data":[]}`), &List[item]{})
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "has_more", missingErr.Field)
	})

	t.Run("data not an array", func(t *testing.T) {
		var malformedErr *MalformedPayloadError
		err := json.Unmarshal([]byte(`{"object":"list","data":{},"has_more":false}`), &List[item]{})
		require.ErrorAs(t, err, &malformedErr)
		assert.Equal(t, "data", malformedErr.Path)
	})

	t.Run("item errors propagate", func(t *testing.T) {
		var unknownErr *UnknownDiscriminatorError
		input := `{"object":"list","data":[{"id":"s","created_at":1,"assistant_id":"a","thread_id":"t","run_id":"r","type":"tool_calls","status":"completed","step_details":{"type":"browsing"}}],"has_more":false}`
		err := json.Unmarshal([]byte(input), &List[RunStep]{})
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "browsing", unknownErr.Tag)
	})
}

func TestList_RunSteps(t *testing.T) {
	step := loadFixture(t, "run_step_tool_calls.json")
	input := `{"object":"list","data":[` + string(step) + `],"has_more":false}`

	var page List[RunStep]
	require.NoError(t, json.Unmarshal([]byte(input), &page))

	require.Len(t, page.Data, 1)
	assert.Equal(t, ptr("step_1"), page.FirstID)
	assert.Equal(t, ptr("step_1"), page.LastID)
	assert.False(t, page.HasMore)

	_, more := page.NextCursor()
	assert.False(t, more)

	encoded, err := json.Marshal(page)
	require.NoError(t, err)
	expected := `{"object":"list","data":[` + string(step) + `],"first_id":"step_1","last_id":"step_1","has_more":false}`
	assert.JSONEq(t, expected, string(encoded))
}

func TestNewList(t *testing.T) {
	t.Run("derives boundaries", func(t *testing.T) {
		page, err := NewList([]item{{ID: "a"}, {ID: "b"}}, true)
		require.NoError(t, err)
		assert.Equal(t, ListObject, page.Object)
		assert.Equal(t, ptr("a"), page.FirstID)
		assert.Equal(t, ptr("b"), page.LastID)

		cursor, more := page.NextCursor()
		assert.True(t, more)
		assert.Equal(t, "b", cursor)
	})

	t.Run("empty terminal page", func(t *testing.T) {
		page, err := NewList([]item{}, false)
		require.NoError(t, err)
		assert.Nil(t, page.FirstID)
		assert.Nil(t, page.LastID)

		encoded, err := json.Marshal(page)
		require.NoError(t, err)
		assert.JSONEq(t, `{"object":"list","data":[],"first_id":null,"last_id":null,"has_more":false}`, string(encoded))
	})

	t.Run("nil items round trip", func(t *testing.T) {
		page, err := NewList[item](nil, false)
		require.NoError(t, err)
		assert.NotNil(t, page.Data)

		encoded, err := json.Marshal(page)
		require.NoError(t, err)
		assert.JSONEq(t, `{"object":"list","data":[],"first_id":null,"last_id":null,"has_more":false}`, string(encoded))

		var decoded List[item]
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Empty(t, decoded.Data)
		assert.False(t, decoded.HasMore)
		assert.Nil(t, decoded.FirstID)
	})

	t.Run("empty page claiming more", func(t *testing.T) {
		_, err := NewList([]item{}, true)
		assert.ErrorIs(t, err, ErrEmptyPage)
	})
}
