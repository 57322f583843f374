package render

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/formatter"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageRunes = 4000

const (
	MsgWelcome = `🍇 <b>Vitiscan treatment assistant</b>

Send the disease detected on your vines and I will build a treatment plan from the agronomic knowledge base.

Type /help to see the commands.`

	MsgHelp = `<b>Commands</b>

/treat &lt;label&gt; &lt;mode&gt; &lt;severity&gt; &lt;area_m2&gt; [YYYY-MM-DD]
Build a treatment plan.
  • label: disease label, e.g. plasmopara_viticola or downy_mildew
  • mode: conventional or organic
  • severity: low, moderate or high
  • area_m2: treated area in square meters

/plan &lt;id&gt;
Show a plan generated earlier.

/export &lt;id&gt; [markdown|pdf|docx]
Download a plan as a document.

Example: <code>/treat plasmopara_viticola organic moderate 5000 2025-05-12</code>`

	MsgGenerating = `⏳ Building your treatment plan...`

	ErrGeneric         = `❌ Something went wrong. Please try again in a moment.`
	ErrUnknownCommand  = `🤔 Unknown command. Type /help to see what I can do.`
	ErrNotACommand     = `ℹ️ I only understand commands. Type /help to get started.`
	ErrPlanNotFound    = `❌ Plan not found. It may have expired, generate a new one with /treat.`
	ErrInvalidPlanID   = `❌ This plan id is not valid.`
	ErrFormat          = `❌ Unknown export format. Use markdown, pdf or docx.`
	ErrRateLimited     = `⚠️ Too many requests. Please wait a little before trying again.`
	ErrRateLimitedHard = `🛑 You are sending requests too often. Please wait a minute.`
)

// Usage explains how a command failed to parse.
func Usage(err error) string {
	return fmt.Sprintf("❌ %s\n\nType /help to see the expected arguments.", html.EscapeString(err.Error()))
}

// Error maps usecase errors to a user-facing message.
func Error(err error) string {
	switch {
	case errors.Is(err, entity.ErrPlanNotFound):
		return ErrPlanNotFound
	case errors.Is(err, entity.ErrUnsupportedFormat):
		return ErrFormat
	case errors.Is(err, entity.ErrInvalidFormat):
		return ErrInvalidPlanID
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		return Usage(err)
	default:
		return ErrGeneric
	}
}

// Plan renders a treatment plan as Telegram HTML.
func Plan(plan *entity.TreatmentAdvice) string {
	doc := formatter.PlanDocument(plan)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍇 <b>%s</b>\n", html.EscapeString(doc.Title))

	for _, section := range doc.Sections {
		if len(section.Paragraphs) == 0 && len(section.Bullets) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", html.EscapeString(section.Heading))
		for _, p := range section.Paragraphs {
			sb.WriteString(html.EscapeString(p))
			sb.WriteString("\n")
		}
		for _, b := range section.Bullets {
			sb.WriteString("• ")
			sb.WriteString(html.EscapeString(b))
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\nPlan id: <code>%s</code>\nDownload: /export %s pdf", html.EscapeString(plan.ID), html.EscapeString(plan.ID))

	return Truncate(sb.String())
}

// Truncate cuts text to the Telegram message limit.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	return string(runes[:maxMessageRunes-1]) + "…"
}
