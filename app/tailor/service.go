package tailor

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/dentalbrief/dentalbrief/app/database"
)

//go:embed prompts/*.md
var promptFS embed.FS

var (
	systemPrompts = map[string]string{
		"en": mustReadPrompt("prompts/system_en.md"),
		"fa": mustReadPrompt("prompts/system_fa.md"),
	}
	userPrompts = map[string]*template.Template{
		"en": template.Must(template.New("user_en").Parse(mustReadPrompt("prompts/user_en.md"))),
		"fa": template.Must(template.New("user_fa").Parse(mustReadPrompt("prompts/user_fa.md"))),
	}
)

func mustReadPrompt(name string) string {
	data, err := promptFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ArticleContent is the material handed to the model. It covers both stored
// articles and ad-hoc links pasted into the chat.
type ArticleContent struct {
	Title    string
	Abstract string
	Link     string
}

type promptData struct {
	Education string
	Title     string
	Journal   string
	Abstract  string
	Link      string
}

// Service turns an article abstract into a summary matched to the reader's
// education profile and language.
type Service struct {
	client *Client
}

func NewService(client *Client) *Service {
	return &Service{client: client}
}

func (s *Service) TailorArticle(ctx context.Context, user *database.User, content ArticleContent, journalName string) (string, error) {
	language := userLanguage(user)

	abstract := content.Abstract
	if abstract == "" {
		if language == "fa" {
			abstract = "چکیده در دسترس نیست"
		} else {
			abstract = "Abstract not available"
		}
	}

	var userPrompt strings.Builder
	err := userPrompts[language].Execute(&userPrompt, promptData{
		Education: EducationDescription(user, language),
		Title:     content.Title,
		Journal:   journalName,
		Abstract:  abstract,
		Link:      content.Link,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompts[language]},
		{Role: "user", Content: userPrompt.String()},
	}

	resp, err := s.client.ChatCompletion(ctx, messages, ChatOptions{
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", err
	}

	slog.Debug("Article tailored",
		"model", resp.Model,
		"tokens_prompt", resp.TokensPrompt,
		"tokens_completion", resp.TokensCompletion)

	tailored := resp.Content

	if language == "fa" {
		tailored = fmt.Sprintf("**عنوان مقاله:**\n%s\n\n%s", content.Title, tailored)
	} else {
		tailored = fmt.Sprintf("**Original Title:**\n%s\n\n%s", content.Title, tailored)
	}

	if content.Link != "" && !strings.Contains(tailored, content.Link) {
		if language == "fa" {
			tailored += fmt.Sprintf("\n\n🔗 لینک مقاله اصلی: %s", content.Link)
		} else {
			tailored += fmt.Sprintf("\n\n🔗 Original Article: %s", content.Link)
		}
	}

	return tailored, nil
}

// EducationDescription renders the user's profile as a short reader
// description for the prompt.
func EducationDescription(user *database.User, language string) string {
	level := user.EducationLevel
	if level == "" {
		level = "general_dentist"
	}

	var levelNames map[string]string
	var fallback string

	if language == "fa" {
		levelNames = map[string]string{
			"dds_student":     "دانشجوی دندانپزشکی",
			"general_dentist": "دندانپزشک عمومی",
			"resident":        "دستیار تخصصی",
			"specialist":      "متخصص",
			"faculty":         "عضو هیئت علمی",
		}
		fallback = "دندانپزشک"
	} else {
		levelNames = map[string]string{
			"dds_student":     "DDS Student",
			"general_dentist": "General Dentist",
			"resident":        "Specialty Resident",
			"specialist":      "Specialist",
			"faculty":         "Faculty/Professor",
		}
		fallback = "Dentist"
	}

	base, ok := levelNames[level]
	if !ok {
		base = fallback
	}

	switch {
	case level == "dds_student" && user.EducationYear > 0:
		if language == "fa" {
			return fmt.Sprintf("%s سال %d", base, user.EducationYear)
		}
		return fmt.Sprintf("%s - Year %d", base, user.EducationYear)
	case user.Specialty != "" && (level == "resident" || level == "specialist"):
		if language == "fa" {
			return fmt.Sprintf("%s %s", base, user.Specialty)
		}
		return fmt.Sprintf("%s %s", user.Specialty, base)
	}

	return base
}

func userLanguage(user *database.User) string {
	if user.Language == "fa" {
		return "fa"
	}
	return "en"
}
