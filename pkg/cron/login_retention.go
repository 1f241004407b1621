package cron

import (
	"log"

	"agrimarket_backend/pkg/audit"

	"github.com/robfig/cron/v3"
)

// InitLoginRetentionCron schedules the nightly sweep that bounds the
// login audit table's growth. The audit service decides what to delete;
// this only provides the schedule.
func InitLoginRetentionCron(auditService *audit.Service, daysToKeep int) {
	c := cron.New()

	// Every night at 03:00
	_, err := c.AddFunc("0 3 * * *", func() {
		runLoginRetentionSweep(auditService, daysToKeep)
	})

	if err != nil {
		log.Printf("Could not initialize login retention cron: %v", err)
		return
	}

	c.Start()
}

func runLoginRetentionSweep(auditService *audit.Service, daysToKeep int) {
	log.Println("Running login attempt retention sweep...")

	deleted := auditService.CleanupOldRecords(daysToKeep)

	log.Printf("Login retention sweep removed %d records older than %d days", deleted, daysToKeep)
}
