package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

// StoryboardService renders a project's analyses and script into a one-page
// brief the user can review before rendering a video.
type StoryboardService struct{}

func NewStoryboardService() *StoryboardService {
	return &StoryboardService{}
}

func (s *StoryboardService) GenerateStoryboard(project domain.Project, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure storyboard directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Storyboard %s", project.ID), false)
	pdf.SetAuthor("AI Ad Generator", false)
	pdf.AddPage()

	createdAt := time.Unix(project.CreatedAt, 0).Local()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("Ad Storyboard - %s", project.Niche))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, fmt.Sprintf("Project: %s", project.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Created: %s", createdAt.Format("02/01/2006 15:04")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Shots")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	for i, asset := range project.Assets {
		line := fmt.Sprintf("%d. [%s] %s", i+1, asset.Category, asset.FileName)
		pdf.MultiCell(0, 6, line, "", "L", false)

		if analysis, ok := project.Analyses[asset.FileName]; ok {
			pdf.SetFont("Helvetica", "I", 11)
			pdf.MultiCell(0, 5, analysis.Description, "", "L", false)
			if len(analysis.FeatureTags) > 0 {
				pdf.MultiCell(0, 5, "Highlights: "+strings.Join(analysis.FeatureTags, ", "), "", "L", false)
			}
			pdf.SetFont("Helvetica", "", 12)
		}
		pdf.Ln(2)
	}

	pdf.Ln(6)
	s.writeScript(pdf, project.Script)

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write storyboard: %w", err)
	}

	return nil
}

func (s *StoryboardService) writeScript(pdf *gofpdf.Fpdf, scriptText string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Script")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)

	content := strings.TrimSpace(scriptText)
	if content == "" {
		pdf.MultiCell(0, 6, "(no script yet)", "", "L", false)
		return
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
}
