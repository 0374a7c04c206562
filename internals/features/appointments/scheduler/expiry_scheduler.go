// file: internals/features/appointments/scheduler/expiry_scheduler.go
package scheduler

import (
	"context"
	"log"
	"time"

	"miclinica_backend/internals/configs"
	"miclinica_backend/internals/features/appointments/service"
)

const sweepBatchSize = 200

// StartAppointmentExpiryScheduler sweeps pending appointments whose
// confirmation window has expired and cancels them through the regular
// cancellation path (payment voided, audit recorded with a system actor).
func StartAppointmentExpiryScheduler(svc *service.Service) {
	interval := configs.SweepInterval
	grace := configs.PendingGrace

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("[SCHEDULER] appointment expiry sweep every %s (grace %s)", interval, grace)
		for range ticker.C {
			sweepOnce(svc, grace)
		}
	}()
}

func sweepOnce(svc *service.Service, grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := svc.ListExpiredPending(ctx, grace, sweepBatchSize)
	if err != nil {
		log.Printf("[SCHEDULER] expiry sweep query failed: %v", err)
		return
	}

	cancelled := 0
	for i := range expired {
		// One bad row must not stop the sweep.
		done, err := svc.CancelExpired(ctx, expired[i].AppointmentID)
		if err != nil {
			log.Printf("[SCHEDULER] cancel expired appointment %s failed: %v", expired[i].AppointmentID, err)
			continue
		}
		if done {
			cancelled++
		}
	}
	if cancelled > 0 {
		log.Printf("[SCHEDULER] cancelled %d expired appointment(s)", cancelled)
	}
}
