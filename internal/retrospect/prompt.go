package retrospect

import (
	"fmt"
	"strings"
	"time"

	"thinkflow/internal/model"
)

// MaxTimelineComments caps how much comment history feeds the prompt.
const MaxTimelineComments = 30

// TimelineEntry is one comment in the prompt's chronological timeline.
type TimelineEntry struct {
	At      time.Time
	Content string
}

// Timeline converts comments (already ascending, already bounded) into
// prompt entries, trimming defensively to MaxTimelineComments.
func Timeline(comments []model.Comment) []TimelineEntry {
	if len(comments) > MaxTimelineComments {
		comments = comments[len(comments)-MaxTimelineComments:]
	}
	entries := make([]TimelineEntry, len(comments))
	for i, c := range comments {
		entries[i] = TimelineEntry{At: c.CreatedAt, Content: c.Content}
	}
	return entries
}

// PromptInput carries the task metadata the prompt is rendered from.
type PromptInput struct {
	Title     string
	Content   string
	CreatedAt time.Time
	DueDate   string // YYYY-MM-DD or "없음"
	Priority  string // 높음/중간/낮음/없음
	Status    string
	Tags      []string // ["#tag", ...]
	Comments  []TimelineEntry
}

// BuildPrompt renders the text-generation prompt. Pure.
func BuildPrompt(in PromptInput) string {
	commentsBlock := "(없음)"
	if len(in.Comments) > 0 {
		lines := make([]string, len(in.Comments))
		for i, c := range in.Comments {
			lines[i] = fmt.Sprintf("- %s: %s", c.At.UTC().Format("2006-01-02 15:04"), c.Content)
		}
		commentsBlock = strings.Join(lines, "\n")
	}

	tagsBlock := "(없음)"
	if len(in.Tags) > 0 {
		tagsBlock = strings.Join(in.Tags, " ")
	}

	taskContent := strings.TrimSpace(in.Content)
	if taskContent == "" {
		taskContent = "(내용 없음)"
	}

	return strings.TrimSpace(fmt.Sprintf(`
너는 태스크의 "회고 작성 보조"다.
입력 정보가 부족하면 사실을 지어내지 말고, "추정"으로 표시해라.

출력 형식 규칙:
- 출력은 **오직 텍스트**만. JSON/코드펜스 금지.
- ~함 체 사용.
- 반드시 아래 템플릿을 채울 것:
  기한: XX. XX. XX. ~ XX. XX. XX., 우선순위: XX
  태그: [태그들]
  ---
  [작업 내용]
  ---
  [회고]
- 각 섹션은 짧은 문장/불릿 위주.
- [작업 내용]에는 요약, 타임라인(comments 기반), 배운 점, 다음 행동을 포함.
- [회고]에는 3~10개의 질문을 bullet로 작성.
- 질문은 사용자가 회고를 구체화하도록 유도(힘들었던 점, 의사결정, 트레이드오프, 검증, 다음 개선 등).

입력 정보:
[Task]
title: %s
content:
%s

meta:
- 생성일: %s
- 기한: %s
- 우선순위: %s
- 태그: %s

[Comments Timeline]
%s`,
		in.Title,
		taskContent,
		in.CreatedAt.UTC().Format("2006-01-02 15:04"),
		in.DueDate,
		in.Priority,
		tagsBlock,
		commentsBlock,
	))
}
