package attrkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeType_IsChoice(t *testing.T) {
	assert.True(t, AttributeTypeSelect.IsChoice())
	assert.True(t, AttributeTypeStatus.IsChoice())
	assert.False(t, AttributeTypeText.IsChoice())
	assert.False(t, AttributeTypeRecordReference.IsChoice())
}

func TestResolutionResult_Matched(t *testing.T) {
	assert.True(t, ResolutionResult{Slug: "stage", MatchType: MatchTypo, Distance: 1}.Matched())
	assert.False(t, ResolutionResult{MatchType: MatchNone}.Matched())
	assert.False(t, ResolutionResult{MatchType: MatchExact}.Matched())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value any
		want  ValueKind
	}{
		{nil, KindNull},
		{"x", KindString},
		{float64(1), KindNumber},
		{42, KindNumber},
		{json.Number("3"), KindNumber},
		{true, KindBool},
		{map[string]any{}, KindObject},
		{[]any{1}, KindArray},
		{[]string{"a"}, KindArray},
		{struct{}{}, KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.value))
		})
	}
	assert.Equal(t, "unknown", ValueKind(99).String())
}

func TestAttributeMetadata_JSON(t *testing.T) {
	doc := `{"slug": "associated_company", "title": "Company", "type": "record-reference",
		"is_required": true, "relationship": {"target_object_slug": "companies"}}`

	var attr AttributeMetadata
	require.NoError(t, json.Unmarshal([]byte(doc), &attr))

	assert.Equal(t, AttributeTypeRecordReference, attr.Type)
	assert.True(t, attr.IsRequired)
	require.NotNil(t, attr.Relationship)
	assert.Equal(t, "companies", attr.Relationship.TargetObjectSlug)
}

func TestWriteRejection(t *testing.T) {
	var err error = &WriteRejection{StatusCode: 422, Body: `{"message":"bad shape"}`}
	assert.Equal(t, `write rejected with status 422: {"message":"bad shape"}`, err.Error())
}

func TestWithoutConditionValidation(t *testing.T) {
	var opts FilterOptions
	WithoutConditionValidation()(&opts)
	assert.True(t, opts.SkipConditionValidation)
}
