package retrospect

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thinkflow/internal/model"
)

func TestTimeline_CapsAtLimit(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	comments := make([]model.Comment, 40)
	for i := range comments {
		comments[i] = model.Comment{
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	entries := Timeline(comments)

	require.Len(t, entries, MaxTimelineComments)
	// The newest entries survive the cut, still oldest first.
	assert.Equal(t, "comment 10", entries[0].Content)
	assert.Equal(t, "comment 39", entries[len(entries)-1].Content)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].At.Before(entries[i-1].At), "timeline must be non-decreasing")
	}
}

func TestBuildPrompt_IncludesTaskAndTimeline(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Title:     "주간 정리",
		Content:   "문서 업데이트",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		DueDate:   "2026-03-07",
		Priority:  "높음",
		Status:    "DONE",
		Tags:      []string{"#docs"},
		Comments: []TimelineEntry{
			{At: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), Content: "초안 작성"},
			{At: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), Content: "리뷰 반영"},
		},
	})

	assert.Contains(t, prompt, "title: 주간 정리")
	assert.Contains(t, prompt, "문서 업데이트")
	assert.Contains(t, prompt, "- 기한: 2026-03-07")
	assert.Contains(t, prompt, "- 우선순위: 높음")
	assert.Contains(t, prompt, "- 태그: #docs")
	assert.Contains(t, prompt, "- 2026-03-02 08:00: 초안 작성")
	assert.Contains(t, prompt, "- 2026-03-03 08:00: 리뷰 반영")

	// Timeline entries appear in chronological order.
	first := strings.Index(prompt, "초안 작성")
	second := strings.Index(prompt, "리뷰 반영")
	assert.Less(t, first, second)
}

func TestBuildPrompt_EmptySections(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Title:     "빈 태스크",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		DueDate:   "없음",
		Priority:  "없음",
		Status:    "READY",
	})

	assert.Contains(t, prompt, "(내용 없음)")
	assert.Contains(t, prompt, "- 태그: (없음)")
	assert.True(t, strings.HasSuffix(prompt, "(없음)"), "empty timeline renders as (없음)")
}
