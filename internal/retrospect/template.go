package retrospect

import (
	"strings"
	"time"

	"thinkflow/internal/model"
)

// PriorityLabel renders a priority for draft text. Mirrors the labels the
// client shows, so drafts and UI stay consistent.
func PriorityLabel(p *model.Priority) string {
	if p == nil {
		return "없음"
	}
	switch *p {
	case model.PriorityHigh:
		return "높음"
	case model.PriorityMedium:
		return "중간"
	case model.PriorityLow:
		return "낮음"
	default:
		return "없음"
	}
}

func ymd(t *time.Time) string {
	if t == nil {
		return "없음"
	}
	return t.UTC().Format("2006-01-02")
}

// TagLabels extracts "#name" labels from an item's tag links.
func TagLabels(links []model.ItemTag) []string {
	labels := make([]string, 0, len(links))
	for _, link := range links {
		if link.Tag == nil || link.Tag.Name == "" {
			continue
		}
		labels = append(labels, "#"+link.Tag.Name)
	}
	return labels
}

// DraftTitle derives the draft title from the task title.
func DraftTitle(taskTitle string) string {
	return "회고: " + taskTitle
}

// BuildTemplate renders the deterministic fallback draft from task
// metadata. Pure; the task must carry its detail row.
func BuildTemplate(task *model.Item) (title, content string) {
	detail := task.TaskDetail

	due := ymd(detail.DueDate)
	pri := PriorityLabel(detail.Priority)

	tags := strings.Join(TagLabels(task.Tags), " ")
	if tags == "" {
		tags = "(없음)"
	}

	original := strings.TrimSpace(task.Content)
	if original == "" {
		original = "(내용 없음)"
	}

	title = DraftTitle(task.Title)
	content = strings.Join([]string{
		"기한: " + due + ", 우선순위: " + pri + ", 상태: " + string(detail.Status),
		"태그: " + tags,
		"",
		"---",
		"작업 내용",
		original,
		"",
		"---",
		"회고",
		"- 잘한 점:",
		"- 아쉬운 점:",
		"- 다음 행동:",
		"",
	}, "\n")

	return title, content
}
