package audit

import (
	"log"
	"time"

	"agrimarket_backend/internal/model"
	"agrimarket_backend/pkg/geoip"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RuleConfig holds the anomaly thresholds. The defaults are the
// behavioral contract; they are configurable only for tuning.
type RuleConfig struct {
	MaxFailedPerHour   int // failed attempts in the trailing hour
	MaxLocationsPerDay int // distinct locations among successful logins in 24h
	MaxDevicesPerDay   int // distinct devices among successful logins in 24h
}

func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		MaxFailedPerHour:   5,
		MaxLocationsPerDay: 3,
		MaxDevicesPerDay:   4,
	}
}

// SuspiciousActivity is the result of the anomaly rule evaluation.
type SuspiciousActivity struct {
	IsSuspicious bool     `json:"is_suspicious"`
	Reasons      []string `json:"reasons"`
}

// LoginStatistics aggregates login attempts over a trailing window.
type LoginStatistics struct {
	TotalAttempts int64   `json:"total_attempts"`
	Successful    int64   `json:"successful"`
	Failed        int64   `json:"failed"`
	UniqueUsers   int64   `json:"unique_users"`
	SuccessRate   float64 `json:"success_rate"`
	WindowDays    int     `json:"window_days"`
}

// Service records login attempts and evaluates anomaly rules over them.
// Every operation here is fail-open: audit logging must never break the
// login path it observes, so persistence and lookup errors are logged
// and swallowed rather than returned.
type Service struct {
	db    *gorm.DB
	geo   *geoip.Client
	rules RuleConfig
}

func NewService(db *gorm.DB, geo *geoip.Client, rules RuleConfig) *Service {
	return &Service{db: db, geo: geo, rules: rules}
}

// RecordSuccessfulLogin stores an audit record for a verified login and
// updates the account's trust metadata (last login time, device token).
// Returns nil when persistence fails; the caller proceeds regardless.
func (s *Service) RecordSuccessfulLogin(c *fiber.Ctx, userID uint, deviceToken string) *model.LoginAttempt {
	attempt := s.buildAttempt(c, userID, deviceToken)
	attempt.Success = true

	if err := s.db.Create(attempt).Error; err != nil {
		log.Printf("audit: could not record successful login for user %d: %v", userID, err)
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{"last_login_at": now}
	if deviceToken != "" {
		updates["device_token"] = deviceToken
	}
	if err := s.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		log.Printf("audit: could not update login metadata for user %d: %v", userID, err)
	}

	return attempt
}

// RecordFailedLogin stores an audit record for a failed attempt. The email
// is unverified, so it is only used to resolve a user id; the record falls
// back to user id 0 when no account matches, keeping attempts against
// nonexistent accounts visible. Account state is never touched here.
func (s *Service) RecordFailedLogin(c *fiber.Ctx, email, failureReason string) *model.LoginAttempt {
	var userID uint
	var user model.User
	if err := s.db.Select("id").Where("email = ?", email).First(&user).Error; err == nil {
		userID = user.ID
	}

	attempt := s.buildAttempt(c, userID, "")
	attempt.Success = false
	attempt.FailureReason = failureReason

	if err := s.db.Create(attempt).Error; err != nil {
		log.Printf("audit: could not record failed login for %s: %v", email, err)
		return nil
	}

	return attempt
}

func (s *Service) buildAttempt(c *fiber.Ctx, userID uint, deviceToken string) *model.LoginAttempt {
	ip := ClientIP(c)
	userAgent := c.Get("User-Agent")

	return &model.LoginAttempt{
		UserID:      userID,
		IPAddress:   ip,
		UserAgent:   userAgent,
		DeviceInfo:  ParseDeviceInfo(userAgent),
		Location:    s.geo.Lookup(ip),
		DeviceToken: deviceToken,
		LoginAt:     time.Now(),
	}
}

// CheckSuspiciousActivity evaluates the anomaly rules over the user's
// trailing 24 hours of attempts. All rules are always evaluated; any
// match flags the account and appends its reason. Fails open: on any
// internal error the account is reported as not suspicious.
func (s *Service) CheckSuspiciousActivity(userID uint) SuspiciousActivity {
	result := SuspiciousActivity{Reasons: []string{}}

	now := time.Now()
	var attempts []model.LoginAttempt
	err := s.db.Where("user_id = ? AND login_at > ?", userID, now.Add(-24*time.Hour)).
		Find(&attempts).Error
	if err != nil {
		log.Printf("audit: suspicious activity check failed for user %d: %v", userID, err)
		return result
	}

	hourAgo := now.Add(-time.Hour)
	failedLastHour := 0
	locations := make(map[string]struct{})
	devices := make(map[string]struct{})

	for _, a := range attempts {
		if !a.Success {
			if a.LoginAt.After(hourAgo) {
				failedLastHour++
			}
			continue
		}
		// Hopping rules look at successful logins only: a brute-force
		// attacker fails, a credential-stuffing attacker succeeds from
		// many places.
		locations[a.Location] = struct{}{}
		devices[a.DeviceInfo] = struct{}{}
	}

	if failedLastHour >= s.rules.MaxFailedPerHour {
		result.IsSuspicious = true
		result.Reasons = append(result.Reasons, "Too many failed login attempts in the last hour")
	}
	if len(locations) >= s.rules.MaxLocationsPerDay {
		result.IsSuspicious = true
		result.Reasons = append(result.Reasons, "Logins from multiple locations detected")
	}
	if len(devices) >= s.rules.MaxDevicesPerDay {
		result.IsSuspicious = true
		result.Reasons = append(result.Reasons, "Logins from multiple devices detected")
	}

	return result
}

// RecentAttempts returns the user's newest attempts, newest first.
func (s *Service) RecentAttempts(userID uint, limit int) []model.LoginAttempt {
	attempts := []model.LoginAttempt{}
	err := s.db.Where("user_id = ?", userID).
		Order("login_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		log.Printf("audit: could not fetch login history for user %d: %v", userID, err)
	}
	return attempts
}

// CleanupOldRecords bulk-deletes attempts older than the retention
// horizon and returns how many rows were removed.
func (s *Service) CleanupOldRecords(daysToKeep int) int64 {
	cutoff := time.Now().AddDate(0, 0, -daysToKeep)

	res := s.db.Where("login_at < ?", cutoff).Delete(&model.LoginAttempt{})
	if res.Error != nil {
		log.Printf("audit: retention sweep failed: %v", res.Error)
		return 0
	}

	return res.RowsAffected
}

// GetLoginStatistics aggregates attempts over the trailing window.
func (s *Service) GetLoginStatistics(days int) LoginStatistics {
	stats := LoginStatistics{WindowDays: days}
	since := time.Now().AddDate(0, 0, -days)

	base := s.db.Model(&model.LoginAttempt{}).Where("login_at > ?", since)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalAttempts).Error; err != nil {
		log.Printf("audit: could not compute login statistics: %v", err)
		return stats
	}
	base.Session(&gorm.Session{}).Where("success = ?", true).Count(&stats.Successful)
	stats.Failed = stats.TotalAttempts - stats.Successful
	base.Session(&gorm.Session{}).Where("success = ?", true).Distinct("user_id").Count(&stats.UniqueUsers)

	if stats.TotalAttempts > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.TotalAttempts) * 100
	}

	return stats
}
