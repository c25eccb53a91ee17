package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/memorialqr/internal/db"
	"gorm.io/gorm"
)

// maxSeriesDays caps the densified daily series so charts stay bounded even
// for year-long or custom ranges.
const maxSeriesDays = 60

// ReactionTypes lists every sentiment marker a visitor can leave.
var ReactionTypes = []string{"candle", "flower", "heart", "pray", "dove"}

var (
	ErrReactionTypeInvalid = errors.New("reaction type is not valid")
	ErrVisitorIDMissing    = errors.New("visitor id is required")
)

// GeoResolver resolves an IP address to a location. Lookups are best effort;
// errors only mean the visit stays unlocated.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (GeoLocation, error)
}

// AnalyticsService aggregates visits and reactions per memorial.
type AnalyticsService struct {
	db  *gorm.DB
	geo GeoResolver
	now func() time.Time
}

// VisitStats summarizes visit counts over the standard windows.
type VisitStats struct {
	TotalVisits int64 `json:"total_visits"`
	TodayVisits int64 `json:"today_visits"`
	WeekVisits  int64 `json:"week_visits"`
	MonthVisits int64 `json:"month_visits"`
}

// DailyVisitStat is one day in the densified visit series.
type DailyVisitStat struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ReactionCounts maps every reaction type to its tally. All five types are
// always present so clients never special-case missing keys.
type ReactionCounts map[string]int64

// MemorialReactions bundles counts with one visitor's active reactions.
type MemorialReactions struct {
	MemorialID    uint           `json:"memorial_id"`
	Counts        ReactionCounts `json:"counts"`
	UserReactions []string       `json:"user_reactions"`
}

// MemorialAnalytics is the per-memorial analytics block.
type MemorialAnalytics struct {
	MemorialID     uint             `json:"memorial_id"`
	MemorialName   string           `json:"memorial_name"`
	MemorialSlug   string           `json:"memorial_slug"`
	Stats          VisitStats       `json:"stats"`
	DailyVisits    []DailyVisitStat `json:"daily_visits"`
	ReactionsCount ReactionCounts   `json:"reactions_count"`
}

// DashboardAnalytics aggregates every memorial of one owner.
type DashboardAnalytics struct {
	TotalMemorials     int                 `json:"total_memorials"`
	TotalVisits        int64               `json:"total_visits"`
	TotalReactions     int64               `json:"total_reactions"`
	MemorialsAnalytics []MemorialAnalytics `json:"memorials_analytics"`
}

// LocationStat is one row of the visitor location breakdown.
type LocationStat struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Count   int64  `json:"count"`
}

// DateRange is a closed day range used for filtered analytics.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewAnalyticsService creates an AnalyticsService without geolocation.
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb, now: time.Now}
}

// WithGeoResolver enables IP geolocation on recorded visits.
func (s *AnalyticsService) WithGeoResolver(geo GeoResolver) *AnalyticsService {
	s.geo = geo
	return s
}

// WithClock overrides the time source, for tests.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	if now != nil {
		s.now = now
	}
	return s
}

// RecordVisit stores a visit for the memorial. Geolocation runs in the
// background and never delays or fails the registration.
func (s *AnalyticsService) RecordVisit(memorialID uint, visitorID, ip, userAgent, referrer string) (*db.Visit, error) {
	visit := db.Visit{
		MemorialID: memorialID,
		VisitorID:  visitorID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Referrer:   referrer,
		VisitedAt:  s.now().UTC(),
	}
	if err := s.db.Create(&visit).Error; err != nil {
		return nil, err
	}

	if s.geo != nil && ip != "" {
		go s.resolveVisitLocation(visit.ID, ip)
	}
	return &visit, nil
}

func (s *AnalyticsService) resolveVisitLocation(visitID uint, ip string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	location, err := s.geo.Lookup(ctx, ip)
	if err != nil || location.Country == "" {
		return
	}

	if err := s.db.Model(&db.Visit{}).Where("id = ?", visitID).
		Updates(map[string]interface{}{"country": location.Country, "city": location.City}).Error; err != nil {
		log.Printf("failed to store visit location: %v", err)
	}
}

// Stats returns the total/today/week/month visit counts for a memorial.
func (s *AnalyticsService) Stats(memorialID uint) (VisitStats, error) {
	var stats VisitStats
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	base := func() *gorm.DB {
		return s.db.Model(&db.Visit{}).Where("memorial_id = ?", memorialID)
	}

	if err := base().Count(&stats.TotalVisits).Error; err != nil {
		return stats, err
	}
	if err := base().Where("visited_at >= ?", today).Count(&stats.TodayVisits).Error; err != nil {
		return stats, err
	}
	if err := base().Where("visited_at >= ?", now.AddDate(0, 0, -7)).Count(&stats.WeekVisits).Error; err != nil {
		return stats, err
	}
	if err := base().Where("visited_at >= ?", now.AddDate(0, 0, -30)).Count(&stats.MonthVisits).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// RangeForPeriod translates a named period into a day range ending today.
// Unknown or empty periods return nil, meaning no filter.
func (s *AnalyticsService) RangeForPeriod(period string) *DateRange {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case "today":
		return &DateRange{Start: today, End: today}
	case "week":
		return &DateRange{Start: today.AddDate(0, 0, -6), End: today}
	case "month":
		return &DateRange{Start: today.AddDate(0, 0, -29), End: today}
	case "year":
		return &DateRange{Start: today.AddDate(0, 0, -364), End: today}
	default:
		return nil
	}
}

// DailySeries returns a gap-free day-by-day visit series for the range,
// newest day last. Missing days are filled with zero counts and the series is
// capped at maxSeriesDays, keeping the most recent days.
func (s *AnalyticsService) DailySeries(memorialID uint, dateRange *DateRange) ([]DailyVisitStat, error) {
	now := s.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -29)

	if dateRange != nil {
		start = dayStart(dateRange.Start)
		end = dayStart(dateRange.End)
	}
	if end.Before(start) {
		start, end = end, start
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxSeriesDays {
		days = maxSeriesDays
		start = end.AddDate(0, 0, -(days - 1))
	}

	type row struct {
		Date  string
		Count int64
	}
	var rows []row
	if err := s.db.Model(&db.Visit{}).
		Select("strftime('%Y-%m-%d', visited_at) AS date, COUNT(id) AS count").
		Where("memorial_id = ? AND visited_at >= ? AND visited_at < ?", memorialID, start, end.AddDate(0, 0, 1)).
		Group("date").
		Order("date").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Date] = r.Count
	}

	series := make([]DailyVisitStat, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, DailyVisitStat{Date: key, Count: counts[key]})
	}
	return series, nil
}

// MemorialAnalytics assembles the full analytics block for one memorial,
// optionally filtered to a date range.
func (s *AnalyticsService) MemorialAnalytics(memorial *db.Memorial, dateRange *DateRange) (MemorialAnalytics, error) {
	analytics := MemorialAnalytics{
		MemorialID:   memorial.ID,
		MemorialName: memorial.Name,
		MemorialSlug: memorial.Slug,
	}

	stats, err := s.Stats(memorial.ID)
	if err != nil {
		return analytics, err
	}
	if dateRange != nil {
		if err := s.rangedQuery(s.db.Model(&db.Visit{}).Where("memorial_id = ?", memorial.ID), "visited_at", dateRange).
			Count(&stats.TotalVisits).Error; err != nil {
			return analytics, err
		}
	}
	analytics.Stats = stats

	series, err := s.DailySeries(memorial.ID, dateRange)
	if err != nil {
		return analytics, err
	}
	analytics.DailyVisits = series

	counts, err := s.reactionCounts(memorial.ID, dateRange)
	if err != nil {
		return analytics, err
	}
	analytics.ReactionsCount = counts

	return analytics, nil
}

// Dashboard assembles analytics across every memorial the user owns.
func (s *AnalyticsService) Dashboard(ownerID uint, dateRange *DateRange) (DashboardAnalytics, error) {
	var dashboard DashboardAnalytics

	var memorials []db.Memorial
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&memorials).Error; err != nil {
		return dashboard, err
	}

	dashboard.TotalMemorials = len(memorials)
	dashboard.MemorialsAnalytics = make([]MemorialAnalytics, 0, len(memorials))
	if len(memorials) == 0 {
		return dashboard, nil
	}

	ids := make([]uint, 0, len(memorials))
	for _, m := range memorials {
		ids = append(ids, m.ID)
	}

	if err := s.rangedQuery(s.db.Model(&db.Visit{}).Where("memorial_id IN ?", ids), "visited_at", dateRange).
		Count(&dashboard.TotalVisits).Error; err != nil {
		return dashboard, err
	}
	if err := s.rangedQuery(s.db.Model(&db.Reaction{}).Where("memorial_id IN ?", ids), "created_at", dateRange).
		Count(&dashboard.TotalReactions).Error; err != nil {
		return dashboard, err
	}

	for i := range memorials {
		analytics, err := s.MemorialAnalytics(&memorials[i], dateRange)
		if err != nil {
			return dashboard, err
		}
		dashboard.MemorialsAnalytics = append(dashboard.MemorialsAnalytics, analytics)
	}
	return dashboard, nil
}

// ToggleReaction flips one visitor's reaction of the given type: removed when
// present, added when absent.
func (s *AnalyticsService) ToggleReaction(memorialID uint, reactionType, visitorID string) (string, error) {
	if !isValidReactionType(reactionType) {
		return "", ErrReactionTypeInvalid
	}
	if visitorID == "" {
		return "", ErrVisitorIDMissing
	}

	action := "added"
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Reaction
		err := tx.Where("memorial_id = ? AND reaction_type = ? AND visitor_id = ?",
			memorialID, reactionType, visitorID).First(&existing).Error
		if err == nil {
			action = "removed"
			return tx.Delete(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&db.Reaction{
			MemorialID:   memorialID,
			ReactionType: reactionType,
			VisitorID:    visitorID,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return action, nil
}

// Reactions returns the per-type tallies plus the given visitor's active set.
func (s *AnalyticsService) Reactions(memorialID uint, visitorID string) (MemorialReactions, error) {
	result := MemorialReactions{MemorialID: memorialID, UserReactions: []string{}}

	counts, err := s.reactionCounts(memorialID, nil)
	if err != nil {
		return result, err
	}
	result.Counts = counts

	if visitorID != "" {
		var types []string
		if err := s.db.Model(&db.Reaction{}).
			Where("memorial_id = ? AND visitor_id = ?", memorialID, visitorID).
			Order("created_at").
			Pluck("reaction_type", &types).Error; err != nil {
			return result, err
		}
		result.UserReactions = types
	}
	return result, nil
}

// LocationStats returns the country/city breakdown of located visits, most
// frequent first.
func (s *AnalyticsService) LocationStats(memorialID uint) ([]LocationStat, error) {
	var stats []LocationStat
	if err := s.db.Model(&db.Visit{}).
		Select("country, city, COUNT(id) AS count").
		Where("memorial_id = ? AND country <> ''", memorialID).
		Group("country").
		Group("city").
		Order("count DESC").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AnalyticsService) reactionCounts(memorialID uint, dateRange *DateRange) (ReactionCounts, error) {
	type row struct {
		ReactionType string
		Count        int64
	}
	var rows []row
	if err := s.rangedQuery(s.db.Model(&db.Reaction{}).Where("memorial_id = ?", memorialID), "created_at", dateRange).
		Select("reaction_type, COUNT(id) AS count").
		Group("reaction_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(ReactionCounts, len(ReactionTypes))
	for _, t := range ReactionTypes {
		counts[t] = 0
	}
	for _, r := range rows {
		if _, ok := counts[r.ReactionType]; ok {
			counts[r.ReactionType] = r.Count
		}
	}
	return counts, nil
}

func (s *AnalyticsService) rangedQuery(query *gorm.DB, column string, dateRange *DateRange) *gorm.DB {
	if dateRange == nil {
		return query
	}
	return query.
		Where(column+" >= ?", dayStart(dateRange.Start)).
		Where(column+" < ?", dayStart(dateRange.End).AddDate(0, 0, 1))
}

func isValidReactionType(reactionType string) bool {
	for _, t := range ReactionTypes {
		if t == reactionType {
			return true
		}
	}
	return false
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
