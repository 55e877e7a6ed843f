package service

import (
	"context"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// Reconciler expires medications whose end date has passed: outstanding
// intakes become skipped, a history record is written and the medication
// row is removed. It runs whenever a patient's dashboard is served and from
// a background ticker, so expiry does not depend on anyone opening the app.
type Reconciler struct {
	medications repository.MedicationsRepository
	archive     repository.ReconcilerRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewReconciler(medications repository.MedicationsRepository, archive repository.ReconcilerRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		medications: medications,
		archive:     archive,
		logger:      logger,
		now:         time.Now,
	}
}

// ReconcilePatient archives every expired medication of one patient.
// Failures are logged per medication and do not stop the sweep; each archive
// is its own transaction, so a failure leaves that medication fully intact.
func (r *Reconciler) ReconcilePatient(ctx context.Context, patientID string) error {
	meds, err := r.medications.ListByPatient(ctx, patientID)
	if err != nil {
		return err
	}

	now := r.now()
	for _, med := range meds {
		if !med.Expired(now) {
			continue
		}
		archived, err := r.archive.ArchiveExpired(ctx, med, now)
		if err != nil {
			r.logger.Error("Failed to archive expired medication",
				zap.String("medication_id", med.ID),
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
			continue
		}
		if archived {
			r.logger.Info("Archived expired medication",
				zap.String("medication_id", med.ID),
				zap.String("medication_name", med.Name),
				zap.String("patient_id", patientID),
			)
		}
	}
	return nil
}

// Run sweeps all active medications on the given interval until the context
// is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Medication reconciler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Medication reconciler stopped")
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				r.logger.Error("Reconciler sweep failed", zap.Error(err))
			}
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) error {
	meds, err := r.medications.ListActive(ctx)
	if err != nil {
		return err
	}

	now := r.now()
	for _, med := range meds {
		if !med.Expired(now) {
			continue
		}
		if _, err := r.archive.ArchiveExpired(ctx, med, now); err != nil {
			r.logger.Error("Failed to archive expired medication",
				zap.String("medication_id", med.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}
