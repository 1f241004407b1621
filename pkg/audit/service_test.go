package audit

import (
	"fmt"
	"testing"
	"time"

	"agrimarket_backend/internal/model"
	"agrimarket_backend/pkg/geoip"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.LoginAttempt{}))

	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()

	// Unreachable base URL: tests only ever resolve private IPs, which
	// short-circuit before any network call.
	geo := geoip.NewClient("http://127.0.0.1:1", time.Second)
	return NewService(db, geo, DefaultRuleConfig())
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:    email,
		Password: "hashed",
		Username: "green-acres",
		FarmName: "Green Acres",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func insertAttempt(t *testing.T, db *gorm.DB, userID uint, success bool, loginAt time.Time, location, deviceInfo string) {
	t.Helper()

	attempt := &model.LoginAttempt{
		UserID:     userID,
		IPAddress:  "203.0.113.10",
		UserAgent:  "test-agent",
		DeviceInfo: deviceInfo,
		Location:   location,
		Success:    success,
		LoginAt:    loginAt,
	}
	if !success {
		attempt.FailureReason = "Invalid password"
	}
	require.NoError(t, db.Create(attempt).Error)
}

func TestRecordFailedLoginUnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	c := newTestCtx(t, map[string]string{
		"X-Forwarded-For": "192.168.1.5",
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0) Chrome/114.0",
	})

	attempt := svc.RecordFailedLogin(c, "nobody@example.com", "Invalid email")

	require.NotNil(t, attempt)
	assert.Equal(t, uint(0), attempt.UserID)
	assert.False(t, attempt.Success)
	assert.Equal(t, "Invalid email", attempt.FailureReason)
	assert.Equal(t, "192.168.1.5", attempt.IPAddress)
	assert.Equal(t, geoip.LocalDevelopment, attempt.Location)
	assert.Equal(t, "Desktop - Windows - Chrome", attempt.DeviceInfo)

	var stored model.LoginAttempt
	require.NoError(t, db.First(&stored, attempt.ID).Error)
	assert.Equal(t, uint(0), stored.UserID)
}

func TestRecordFailedLoginKnownEmailNeverTouchesAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")
	c := newTestCtx(t, map[string]string{"X-Forwarded-For": "10.0.0.4"})

	attempt := svc.RecordFailedLogin(c, "farmer@example.com", "Invalid password")

	require.NotNil(t, attempt)
	assert.Equal(t, user.ID, attempt.UserID)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Nil(t, reloaded.LastLoginAt)
	assert.Empty(t, reloaded.DeviceToken)
}

func TestRecordSuccessfulLoginUpdatesTrustMetadata(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")
	c := newTestCtx(t, map[string]string{"X-Forwarded-For": "10.0.0.4"})

	attempt := svc.RecordSuccessfulLogin(c, user.ID, "device-token-abc")

	require.NotNil(t, attempt)
	assert.True(t, attempt.Success)
	assert.Empty(t, attempt.FailureReason)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.WithinDuration(t, time.Now(), *reloaded.LastLoginAt, 5*time.Second)
	assert.Equal(t, "device-token-abc", reloaded.DeviceToken)
}

func TestRecordSuccessfulLoginKeepsExistingDeviceToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")
	require.NoError(t, db.Model(user).Update("device_token", "existing-token").Error)
	c := newTestCtx(t, map[string]string{"X-Forwarded-For": "10.0.0.4"})

	svc.RecordSuccessfulLogin(c, user.ID, "")

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "existing-token", reloaded.DeviceToken)
}

func TestBruteForceRule(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	for i := 0; i < 5; i++ {
		insertAttempt(t, db, user.ID, false, now.Add(-time.Duration(i+1)*5*time.Minute), "Unknown Location", "Desktop - Windows - Chrome")
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.True(t, result.IsSuspicious)
	assert.Contains(t, result.Reasons, "Too many failed login attempts in the last hour")
}

func TestBruteForceRuleBelowThreshold(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	for i := 0; i < 4; i++ {
		insertAttempt(t, db, user.ID, false, now.Add(-time.Duration(i+1)*5*time.Minute), "Unknown Location", "Desktop - Windows - Chrome")
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.False(t, result.IsSuspicious)
	assert.NotContains(t, result.Reasons, "Too many failed login attempts in the last hour")
}

func TestBruteForceRuleIgnoresFailuresOlderThanAnHour(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	// Inside the 24h window but outside the 1h sub-window
	for i := 0; i < 10; i++ {
		insertAttempt(t, db, user.ID, false, now.Add(-3*time.Hour), "Unknown Location", "Desktop - Windows - Chrome")
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.NotContains(t, result.Reasons, "Too many failed login attempts in the last hour")
}

func TestLocationHoppingRule(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	locations := []string{"Austin, Texas, United States", "Berlin, Berlin, Germany", "Tokyo, Tokyo, Japan"}
	for i, loc := range locations {
		insertAttempt(t, db, user.ID, true, now.Add(-time.Duration(i+1)*time.Hour), loc, "Desktop - Windows - Chrome")
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.True(t, result.IsSuspicious)
	assert.Contains(t, result.Reasons, "Logins from multiple locations detected")
}

func TestLocationHoppingIgnoresFailedAttempts(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	// Failed attempts from many locations are a brute-force signal, not a
	// location-hopping one; the hopping rules only look at successes.
	locations := []string{"Austin, Texas, United States", "Berlin, Berlin, Germany", "Tokyo, Tokyo, Japan", "Lima, Lima, Peru"}
	for i, loc := range locations {
		insertAttempt(t, db, user.ID, false, now.Add(-time.Duration(i+2)*time.Hour), loc, "Desktop - Windows - Chrome")
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.NotContains(t, result.Reasons, "Logins from multiple locations detected")
}

func TestDeviceHoppingRule(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	devices := []string{
		"Desktop - Windows - Chrome",
		"Mobile - Android - Chrome",
		"Desktop - macOS - Safari",
		"Mobile - iOS - Safari",
	}
	for i, device := range devices {
		insertAttempt(t, db, user.ID, true, now.Add(-time.Duration(i+1)*time.Hour), "Austin, Texas, United States", device)
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.True(t, result.IsSuspicious)
	assert.Contains(t, result.Reasons, "Logins from multiple devices detected")
}

func TestRulesAreIndependentAndAllEvaluated(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	for i := 0; i < 5; i++ {
		insertAttempt(t, db, user.ID, false, now.Add(-time.Duration(i+1)*time.Minute), "Unknown Location", "Desktop - Windows - Chrome")
	}
	locations := []string{"Austin, Texas, United States", "Berlin, Berlin, Germany", "Tokyo, Tokyo, Japan"}
	for i, loc := range locations {
		insertAttempt(t, db, user.ID, true, now.Add(-time.Duration(i+1)*time.Hour), loc, "Desktop - Windows - Chrome")
	}

	result := svc.CheckSuspiciousActivity(user.ID)

	assert.True(t, result.IsSuspicious)
	assert.Contains(t, result.Reasons, "Too many failed login attempts in the last hour")
	assert.Contains(t, result.Reasons, "Logins from multiple locations detected")
}

func TestCheckSuspiciousActivityNoHistory(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	result := svc.CheckSuspiciousActivity(42)

	assert.False(t, result.IsSuspicious)
	assert.Empty(t, result.Reasons)
	assert.NotNil(t, result.Reasons)
}

func TestDefaultRuleConfig(t *testing.T) {
	rules := DefaultRuleConfig()

	assert.Equal(t, 5, rules.MaxFailedPerHour)
	assert.Equal(t, 3, rules.MaxLocationsPerDay)
	assert.Equal(t, 4, rules.MaxDevicesPerDay)
}

func TestGetLoginStatisticsEmptyWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	stats := svc.GetLoginStatistics(30)

	assert.Equal(t, int64(0), stats.TotalAttempts)
	assert.Equal(t, float64(0), stats.SuccessRate)
}

func TestGetLoginStatistics(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	now := time.Now()
	insertAttempt(t, db, 1, true, now.Add(-time.Hour), "Austin, Texas, United States", "Desktop - Windows - Chrome")
	insertAttempt(t, db, 1, true, now.Add(-2*time.Hour), "Austin, Texas, United States", "Desktop - Windows - Chrome")
	insertAttempt(t, db, 2, true, now.Add(-3*time.Hour), "Berlin, Berlin, Germany", "Mobile - Android - Chrome")
	insertAttempt(t, db, 0, false, now.Add(-4*time.Hour), "Unknown Location", "Desktop - Unknown - Unknown")

	// Outside the window, must be excluded
	insertAttempt(t, db, 3, true, now.AddDate(0, 0, -40), "Tokyo, Tokyo, Japan", "Desktop - macOS - Safari")

	stats := svc.GetLoginStatistics(30)

	assert.Equal(t, int64(4), stats.TotalAttempts)
	assert.Equal(t, int64(3), stats.Successful)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(2), stats.UniqueUsers)
	assert.InDelta(t, 75.0, stats.SuccessRate, 0.001)
}

func TestCleanupOldRecordsIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	now := time.Now()
	for i := 0; i < 3; i++ {
		insertAttempt(t, db, 1, true, now.AddDate(0, 0, -100), "Austin, Texas, United States", "Desktop - Windows - Chrome")
	}
	insertAttempt(t, db, 1, true, now.Add(-time.Hour), "Austin, Texas, United States", "Desktop - Windows - Chrome")

	assert.Equal(t, int64(3), svc.CleanupOldRecords(90))
	assert.Equal(t, int64(0), svc.CleanupOldRecords(90))

	var remaining int64
	db.Model(&model.LoginAttempt{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}

func TestRecentAttemptsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	now := time.Now()
	for i := 0; i < 5; i++ {
		insertAttempt(t, db, 1, true, now.Add(-time.Duration(i)*time.Hour), fmt.Sprintf("City %d", i), "Desktop - Windows - Chrome")
	}

	attempts := svc.RecentAttempts(1, 3)

	require.Len(t, attempts, 3)
	assert.Equal(t, "City 0", attempts[0].Location)
	assert.Equal(t, "City 1", attempts[1].Location)
	assert.Equal(t, "City 2", attempts[2].Location)
}

func TestAttemptsAreNeverMutated(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := createTestUser(t, db, "farmer@example.com")

	now := time.Now()
	insertAttempt(t, db, user.ID, false, now.Add(-30*time.Minute), "Unknown Location", "Desktop - Windows - Chrome")
	insertAttempt(t, db, user.ID, true, now.Add(-time.Hour), "Austin, Texas, United States", "Desktop - Windows - Chrome")

	var before []model.LoginAttempt
	require.NoError(t, db.Order("id").Find(&before).Error)

	// Every read-side operation plus a new success for the same user;
	// none of them may touch the existing rows.
	svc.CheckSuspiciousActivity(user.ID)
	svc.GetLoginStatistics(30)
	svc.RecentAttempts(user.ID, 10)
	c := newTestCtx(t, map[string]string{"X-Forwarded-For": "10.0.0.9"})
	svc.RecordSuccessfulLogin(c, user.ID, "token")

	var after []model.LoginAttempt
	require.NoError(t, db.Where("id IN ?", []uint{before[0].ID, before[1].ID}).Order("id").Find(&after).Error)

	require.Len(t, after, 2)
	for i := range before {
		assert.Equal(t, before[i].Location, after[i].Location)
		assert.Equal(t, before[i].DeviceInfo, after[i].DeviceInfo)
		assert.Equal(t, before[i].Success, after[i].Success)
		assert.Equal(t, before[i].FailureReason, after[i].FailureReason)
		assert.True(t, before[i].LoginAt.Equal(after[i].LoginAt))
	}
}
