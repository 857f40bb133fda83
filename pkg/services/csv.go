package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/backsoul/quizdeck/pkg/models"
)

const (
	defaultGrade = "M1"
	// fila 0: título y curso, fila 1: cabecera "문제,정답", luego preguntas
	minQuizRows = 3
)

// manifestRow fila de quizzes.csv
type manifestRow struct {
	FolderName string `csv:"folder_name"`
	Title      string `csv:"title"`
	Grade      string `csv:"grade"`
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// readQuizRows lee el CSV sin cabecera. Las líneas vacías se saltan. Ante un
// error de parseo devuelve las filas leídas hasta ese punto junto al error.
func readQuizRows(r io.Reader) ([][]string, error) {
	reader := newCSVReader(r)

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, record)
	}
}

// buildQuiz arma el quiz a partir de las filas del CSV de la carpeta
func buildQuiz(folder string, rows [][]string, enableImages bool) (models.Quiz, error) {
	if len(rows) < minQuizRows {
		return models.Quiz{}, fmt.Errorf("%w: %d filas", ErrInvalidFormat, len(rows))
	}

	title := field(rows[0], 0)
	if title == "" {
		title = defaultTitle(folder)
	}
	grade := field(rows[0], 1)
	if grade == "" {
		grade = defaultGrade
	}

	questions := make([]models.QuizQuestion, 0, len(rows)-2)
	for _, row := range rows[2:] {
		question := models.QuizQuestion{
			Question: field(row, 0),
			Answer:   field(row, 1),
		}
		if image := strings.TrimSpace(field(row, 2)); image != "" {
			question.Image = folder + "/" + image
		}

		if question.Question == "" || question.Answer == "" {
			continue
		}
		if !enableImages && question.Image != "" {
			continue
		}
		questions = append(questions, question)
	}

	return models.Quiz{
		Title:     title,
		Grade:     grade,
		Questions: questions,
	}, nil
}

// defaultTitle "m1_sample_quiz" -> "m1 sample"
func defaultTitle(folder string) string {
	title := strings.Replace(folder, "_quiz", "", 1)
	return strings.Replace(title, "_", " ", 1)
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseManifest lee quizzes.csv (con cabecera folder_name,title,grade) y
// descarta las filas incompletas.
func parseManifest(r io.Reader) ([]models.QuizMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error leyendo quizzes.csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.QuizMetadata{}, nil
	}

	var rows []manifestRow
	if err := gocsv.UnmarshalCSV(newCSVReader(bytes.NewReader(data)), &rows); err != nil {
		return nil, fmt.Errorf("%w: quizzes.csv: %v", ErrInvalidFormat, err)
	}

	metadata := make([]models.QuizMetadata, 0, len(rows))
	for _, row := range rows {
		if row.FolderName == "" || row.Title == "" || row.Grade == "" {
			continue
		}
		metadata = append(metadata, models.QuizMetadata{
			Filename: row.FolderName,
			Title:    row.Title,
			Grade:    row.Grade,
		})
	}
	return metadata, nil
}
