package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// LabService owns lab orders. Status writes publish the before/after pair so
// the notifier can edge-trigger on the ready transition.
type LabService interface {
	CreateOrder(ctx context.Context, doctorID, doctorName string, req LabOrderRequest) (*domain.LabResult, error)
	UpdateTests(ctx context.Context, doctorID, resultID string, tests []map[string]any) error
	SetStatus(ctx context.Context, doctorID, resultID, status string) error
	ListForPatient(ctx context.Context, patientID string) ([]*domain.LabResult, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*domain.LabResult, error)
	Get(ctx context.Context, resultID string) (*domain.LabResult, error)
}

type LabOrderRequest struct {
	PatientID string           `json:"patientId"`
	Tests     []map[string]any `json:"tests"`
}

type labService struct {
	results   repository.LabResultsRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewLabService(results repository.LabResultsRepository, publisher events.Publisher, logger *zap.Logger) LabService {
	return &labService{results: results, publisher: publisher, logger: logger}
}

// NormalizeTests is the single read-boundary normalization for test rows.
// Historical clients wrote test entries under several key variants; every
// variant collapses to {testType, results} here and nowhere else.
func NormalizeTests(raw []map[string]any) []domain.LabTest {
	tests := make([]domain.LabTest, 0, len(raw))
	for _, entry := range raw {
		test := domain.LabTest{
			TestType: firstString(entry, "testType", "test_type", "type", "test"),
			Results:  firstString(entry, "results", "result", "value"),
		}
		test.TestType = strings.TrimSpace(test.TestType)
		if test.TestType == "" {
			continue
		}
		tests = append(tests, test)
	}
	return tests
}

func firstString(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := entry[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *labService) CreateOrder(ctx context.Context, doctorID, doctorName string, req LabOrderRequest) (*domain.LabResult, error) {
	if req.PatientID == "" {
		return nil, fmt.Errorf("patientId is required")
	}
	tests := NormalizeTests(req.Tests)
	if len(tests) == 0 {
		return nil, fmt.Errorf("at least one test is required")
	}

	result := &domain.LabResult{
		PatientID:  req.PatientID,
		DoctorID:   doctorID,
		DoctorName: doctorName,
		Status:     domain.LabStatusPending,
		Tests:      tests,
	}
	id, err := s.results.CreateLabResult(ctx, result)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lab order created",
		zap.String("lab_result_id", id),
		zap.String("patient_id", req.PatientID),
	)
	return result, nil
}

func (s *labService) UpdateTests(ctx context.Context, doctorID, resultID string, tests []map[string]any) error {
	result, err := s.results.GetLabResult(ctx, resultID)
	if err != nil {
		return err
	}
	if result.DoctorID != doctorID {
		return fmt.Errorf("lab result belongs to another doctor")
	}
	normalized := NormalizeTests(tests)
	if len(normalized) == 0 {
		return fmt.Errorf("at least one test is required")
	}
	return s.results.UpdateTests(ctx, resultID, normalized)
}

// SetStatus writes the status and publishes the transition. The event always
// carries before and after; deciding whether anything should fire is the
// notifier's call, not ours.
func (s *labService) SetStatus(ctx context.Context, doctorID, resultID, status string) error {
	if status == "" {
		return fmt.Errorf("status is required")
	}
	result, err := s.results.GetLabResult(ctx, resultID)
	if err != nil {
		return err
	}
	if result.DoctorID != doctorID {
		return fmt.Errorf("lab result belongs to another doctor")
	}

	before, err := s.results.UpdateStatus(ctx, resultID, status)
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.DocumentEvent{
		Type:         events.TypeLabResultWritten,
		PatientID:    result.PatientID,
		DoctorID:     doctorID,
		LabResultID:  resultID,
		StatusBefore: before,
		StatusAfter:  status,
		Timestamp:    time.Now().Unix(),
	}); err != nil {
		s.logger.Error("Failed to publish lab_result.written event",
			zap.String("lab_result_id", resultID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *labService) ListForPatient(ctx context.Context, patientID string) ([]*domain.LabResult, error) {
	return s.results.ListByPatient(ctx, patientID)
}

func (s *labService) ListForDoctor(ctx context.Context, doctorID string) ([]*domain.LabResult, error) {
	return s.results.ListByDoctor(ctx, doctorID)
}

func (s *labService) Get(ctx context.Context, resultID string) (*domain.LabResult, error) {
	return s.results.GetLabResult(ctx, resultID)
}
