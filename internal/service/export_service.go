package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
)

type rosterClassReader interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.ClassDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes roster rendering.
type ExportConfig struct {
	CSVWithBOM  bool
	PDFFontPath string
}

var rosterHeaders = []string{"full_name", "student_id", "date_of_birth", "phone", "email", "parent_name", "parent_phone"}

// ExportService renders class rosters for their owner.
type ExportService struct {
	classes  rosterClassReader
	students classRosterReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers are built from cfg.
func NewExportService(classes rosterClassReader, students classRosterReader, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(cfg.CSVWithBOM)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(cfg.PDFFontPath)
	}
	return &ExportService{classes: classes, students: students, csv: csv, pdf: pdf, logger: logger}
}

// Roster renders the active students of an owned class in the requested format.
func (s *ExportService) Roster(ctx context.Context, teacherID, classID string, format dto.RosterFormat) (*dto.RosterFile, error) {
	format = dto.RosterFormat(strings.ToLower(string(format)))
	if format == "" {
		format = dto.RosterFormatCSV
	}
	if format != dto.RosterFormatCSV && format != dto.RosterFormatPDF {
		return nil, appErrors.Validation(nil, "unsupported roster format", []appErrors.FieldError{{
			Field:   "format",
			Rule:    "oneof",
			Message: "must be one of: csv pdf",
		}})
	}

	class, err := s.classes.FindOwned(ctx, classID, teacherID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, storageError(err, "failed to list class students")
	}

	data := rosterDataset(students)
	base := fmt.Sprintf("roster-%s-%s", class.ID, time.Now().UTC().Format("20060102"))

	var (
		content     []byte
		contentType string
	)
	switch format {
	case dto.RosterFormatPDF:
		title := fmt.Sprintf("%s - %s (%s)", class.ClassName, class.Profession, class.AcademicYear)
		content, err = s.pdf.Render(data, title)
		contentType = "application/pdf"
	default:
		content, err = s.csv.Render(data)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("failed to render roster", zap.String("class_id", classID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &dto.RosterFile{
		Filename:    base + "." + string(format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func rosterDataset(students []models.LearnerProfile) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		row := map[string]string{
			"full_name":     st.FullName,
			"student_id":    deref(st.StudentID),
			"date_of_birth": "",
			"phone":         deref(st.Phone),
			"email":         deref(st.Email),
			"parent_name":   deref(st.ParentName),
			"parent_phone":  deref(st.ParentPhone),
		}
		if st.DateOfBirth != nil {
			row["date_of_birth"] = st.DateOfBirth.Format("2006-01-02")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: rosterHeaders, Rows: rows}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
