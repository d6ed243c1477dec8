package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeFeedback(t *testing.T) {
	items := []*Feedback{
		{ApprovalStatus: ApprovalApproved},
		{ApprovalStatus: ApprovalPending},
		{ApprovalStatus: ApprovalRejected},
		{ApprovalStatus: ApprovalApproved},
		{ApprovalStatus: ""},
	}
	assert.Equal(t, FeedbackSummary{Approved: 2, Pending: 2, Rejected: 1}, SummarizeFeedback(items))
	assert.Equal(t, FeedbackSummary{}, SummarizeFeedback(nil))
}

func TestLookupFileCategory(t *testing.T) {
	c, ok := LookupFileCategory("drawing")
	assert.True(t, ok)
	assert.Equal(t, CategoryDrawing, c)

	_, ok = LookupFileCategory("drawings")
	assert.False(t, ok)
	assert.Equal(t, CategoryMisc, ParseFileCategory("drawings"))
	assert.Equal(t, CategoryMisc, ParseFileCategory("misc"))
}
