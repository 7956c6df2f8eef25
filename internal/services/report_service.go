package services

import (
	"context"
	"fmt"
	"strings"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/repositories"
	"smartbus/internal/utils"
)

const recentReportsLimit = 50

type ReportService struct {
	Repo      repositories.ReportRepository
	RequestID string
}

// ValidateReport checks a submission before anything is stored for it.
func ValidateReport(in models.NewReport) error {
	if strings.TrimSpace(in.ReportType) == "" {
		return domain.ValidationError{Field: "reportType", Msg: "Report type is required."}
	}
	return nil
}

func (s ReportService) Submit(ctx context.Context, in models.NewReport) (int64, error) {
	in.ReportType = strings.TrimSpace(in.ReportType)
	if err := ValidateReport(in); err != nil {
		return 0, err
	}
	id, err := s.Repo.Create(ctx, in)
	if err != nil {
		return 0, err
	}
	utils.LogEvent(s.RequestID, "reports", "submit", fmt.Sprintf("report_id=%d user_id=%d type=%s", id, in.UserID, in.ReportType))
	return id, nil
}

func (s ReportService) Recent(ctx context.Context) ([]models.Report, error) {
	return s.Repo.ListRecent(ctx, recentReportsLimit)
}

func (s ReportService) Mine(ctx context.Context, userID int64) ([]models.Report, error) {
	return s.Repo.ListByUser(ctx, userID)
}
