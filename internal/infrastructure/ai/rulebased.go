package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// RuleBasedName is the provider name of the rule-based generator
const RuleBasedName = "rule_based"

const maxExcerptRunes = 400

type intent struct {
	keywords []string
	answer   string
}

// Checked in order; the first intent with a keyword that starts a word of the
// question wins, so "lead" also answers "leads".
var intents = []intent{
	{
		keywords: []string{"lead", "route", "routing", "assign", "territor"},
		answer: "Leads can be routed automatically from CRM > Routing. Choose round robin, least loaded " +
			"or territory based routing; territory routing matches the lead's country, state, city, " +
			"postal code and industry and picks the least loaded rep in the best territory.",
	},
	{
		keywords: []string{"contact", "customer", "crm", "deal", "pipeline"},
		answer: "Contacts and deals live under CRM. Move a contact through lead, qualified, prospect and " +
			"customer stages, and track deal value and probability on the pipeline board.",
	},
	{
		keywords: []string{"invoice", "payment", "overdue", "gst", "tax", "billing"},
		answer: "Create invoices under Finance > Invoices. Add line items while the invoice is a draft, " +
			"send it, then record payments; invoices past their due date are marked overdue.",
	},
	{
		keywords: []string{"employee", "staff", "leave", "payroll", "salar", "hr"},
		answer: "Employees are managed under HR. You can record joining details, put an employee on " +
			"leave, bring them back, or terminate them; monthly payroll totals appear on the dashboard.",
	},
	{
		keywords: []string{"project", "budget", "milestone", "progress"},
		answer: "Projects move from planned to active, can be put on hold and resumed, and are completed " +
			"or cancelled. Update progress as work advances to keep the dashboard accurate.",
	},
	{
		keywords: []string{"document", "upload", "knowledge", "pdf"},
		answer: "Upload PDFs, Markdown or text files under Knowledge. Once indexed they are searchable " +
			"and the assistant can answer questions from them.",
	},
	{
		keywords: []string{"dashboard", "stats", "report", "summar"},
		answer: "The dashboard summarises every module your plan includes: pipeline, receivables, " +
			"headcount, project progress and knowledge base size.",
	},
}

const genericAnswer = "I can help with CRM leads and deals, invoices, employees, projects and your " +
	"knowledge base. Ask about one of these, or upload documents so I can answer from them."

// RuleBasedProvider answers without a model. With sources it quotes the best
// matching excerpts; otherwise it replies with help text chosen by keyword.
// It never fails.
type RuleBasedProvider struct{}

// NewRuleBasedProvider creates the rule-based generator
func NewRuleBasedProvider() *RuleBasedProvider {
	return &RuleBasedProvider{}
}

// Name implements ChatProvider
func (RuleBasedProvider) Name() string {
	return RuleBasedName
}

// Generate implements ChatProvider
func (RuleBasedProvider) Generate(_ context.Context, prompt Prompt) (string, error) {
	if len(prompt.Sources) > 0 {
		return answerFromSources(prompt.Sources), nil
	}
	return answerByIntent(prompt.Question), nil
}

func answerFromSources(sources []Snippet) string {
	var b strings.Builder
	b.WriteString("Here is what I found in your knowledge base:\n")
	for i, s := range sources {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "\n[%d] %s: %s", i+1, s.Title, Excerpt(s.Content))
	}
	return b.String()
}

// Excerpt collapses whitespace and shortens content to a sentence or word boundary
func Excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= maxExcerptRunes {
		return content
	}
	cut := string(runes[:maxExcerptRunes])
	if i := strings.LastIndexAny(cut, ".!?"); i > maxExcerptRunes/2 {
		return cut[:i+1]
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func answerByIntent(question string) string {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, in := range intents {
		for _, kw := range in.keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return in.answer
				}
			}
		}
	}
	return genericAnswer
}
