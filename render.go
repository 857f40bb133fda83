package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/backsoul/quizdeck/pkg/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	gradeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")).Background(lipgloss.Color("#e1e4e8")).Padding(0, 1)
	folderStyle = lipgloss.NewStyle().Faint(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	imageStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#64B5F6"))
	scoreStyle  = lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

func renderCatalog(w io.Writer, quizzes []models.QuizMetadata) {
	if len(quizzes) == 0 {
		fmt.Fprintln(w, folderStyle.Render("No hay quizzes disponibles"))
		return
	}

	for _, quiz := range quizzes {
		fmt.Fprintf(w, "%s %s  %s\n",
			gradeStyle.Render(quiz.Grade),
			titleStyle.Render(quiz.Title),
			folderStyle.Render(quiz.Filename))
	}
	fmt.Fprintln(w, folderStyle.Render(fmt.Sprintf("%d quizzes", len(quizzes))))
}

func renderQuiz(w io.Writer, folder string, quiz models.Quiz) {
	fmt.Fprintf(w, "%s %s  %s\n\n",
		gradeStyle.Render(quiz.Grade),
		titleStyle.Render(quiz.Title),
		folderStyle.Render(folder))

	width := len(fmt.Sprint(len(quiz.Questions)))
	for i, q := range quiz.Questions {
		fmt.Fprintf(w, "%*d. %s\n", width, i+1, q.Question)
		indent := strings.Repeat(" ", width+2)
		if q.Image != "" {
			fmt.Fprintf(w, "%s%s\n", indent, imageStyle.Render("🖼  "+q.Image))
		}
		fmt.Fprintf(w, "%s%s\n", indent, answerStyle.Render("→ "+q.Answer))
	}
}

func renderScore(w io.Writer, total, correct, score int) {
	fmt.Fprintln(w, scoreStyle.Render(fmt.Sprintf("%d / %d  ·  %d%%", correct, total, score)))
}
