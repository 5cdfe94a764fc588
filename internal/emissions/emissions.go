// Package emissions provides structured access to the tabular emissions
// statistics used to ground report sections with numbers. A filter is
// extracted from the section question (keyword + year range), aggregated
// with SQL over the emissions table, and rendered into a fixed-format
// Korean summary.
package emissions

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Record is one emissions measurement.
type Record struct {
	Year   int
	Sector string
	Source string
	Amount float64 // kt CO2-eq
}

// Filter restricts a summary query.
// Zero values mean "no restriction".
type Filter struct {
	Keyword  string // matched against sector and source (substring, case-insensitive)
	FromYear int
	ToYear   int
}

// YearTotal is the aggregated amount for one year.
type YearTotal struct {
	Year   int
	Amount float64
}

// Summary is the aggregated result of a filtered query.
type Summary struct {
	Filter    Filter
	Count     int64
	Total     float64
	FirstYear int
	LastYear  int
	ByYear    []YearTotal
	TopSector string
	TopAmount float64
}

// Empty reports whether the summary matched no rows.
func (s *Summary) Empty() bool { return s == nil || s.Count == 0 }

// String renders the summary as Korean prose suitable for prompt grounding.
func (s *Summary) String() string {
	if s.Empty() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d~%d년 배출량 데이터 %d건 기준, 총배출량은 %.1f ktCO2eq입니다.",
		s.FirstYear, s.LastYear, s.Count, s.Total)
	if s.TopSector != "" {
		fmt.Fprintf(&b, " 배출량이 가장 큰 부문은 '%s'(%.1f ktCO2eq)입니다.", s.TopSector, s.TopAmount)
	}
	if len(s.ByYear) >= 2 {
		first := s.ByYear[0]
		last := s.ByYear[len(s.ByYear)-1]
		if first.Amount > 0 {
			change := (last.Amount - first.Amount) / first.Amount * 100
			direction := "증가"
			if change < 0 {
				direction = "감소"
				change = -change
			}
			fmt.Fprintf(&b, " 연도별 추이는 %d년 %.1f에서 %d년 %.1f로 %.1f%% %s했습니다.",
				first.Year, first.Amount, last.Year, last.Amount, change, direction)
		}
	}
	return b.String()
}

// yearPattern matches 4-digit years between 1900 and 2099.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// sectorKeywords maps question phrases to sector filter keywords.
// Checked in order; first match wins.
var sectorKeywords = []struct{ phrase, keyword string }{
	{"에너지", "에너지"},
	{"산업공정", "산업공정"},
	{"산업", "산업"},
	{"수송", "수송"},
	{"건물", "건물"},
	{"농업", "농업"},
	{"폐기물", "폐기물"},
	{"전환", "전환"},
	{"transport", "수송"},
	{"energy", "에너지"},
	{"industry", "산업"},
	{"waste", "폐기물"},
}

// FilterFromQuestion derives a Filter from a section question.
// Years mentioned in the question bound the range; a known sector phrase
// becomes the keyword. The extraction is deterministic: no model call
// sits between the question and the SQL.
func FilterFromQuestion(question string) Filter {
	var f Filter

	years := yearPattern.FindAllString(question, -1)
	if len(years) > 0 {
		nums := make([]int, 0, len(years))
		for _, y := range years {
			if n, err := strconv.Atoi(y); err == nil {
				nums = append(nums, n)
			}
		}
		sort.Ints(nums)
		if len(nums) > 0 {
			f.FromYear = nums[0]
			f.ToYear = nums[len(nums)-1]
		}
	}

	lower := strings.ToLower(question)
	for _, sk := range sectorKeywords {
		if strings.Contains(lower, strings.ToLower(sk.phrase)) {
			f.Keyword = sk.keyword
			break
		}
	}

	return f
}

// Store queries the emissions table.
type Store struct {
	db     DBTX
	logger *slog.Logger
}

// NewStore creates a Store bound to the given connection.
func NewStore(db DBTX, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

const summarySQL = `
SELECT count(*),
       COALESCE(sum(amount_ktco2), 0),
       COALESCE(min(year), 0),
       COALESCE(max(year), 0)
FROM emissions
WHERE ($1 = '' OR sector ILIKE '%' || $1 || '%' OR source ILIKE '%' || $1 || '%')
  AND ($2 = 0 OR year >= $2)
  AND ($3 = 0 OR year <= $3)`

const byYearSQL = `
SELECT year, sum(amount_ktco2)
FROM emissions
WHERE ($1 = '' OR sector ILIKE '%' || $1 || '%' OR source ILIKE '%' || $1 || '%')
  AND ($2 = 0 OR year >= $2)
  AND ($3 = 0 OR year <= $3)
GROUP BY year
ORDER BY year`

const topSectorSQL = `
SELECT sector, sum(amount_ktco2) AS total
FROM emissions
WHERE ($1 = '' OR sector ILIKE '%' || $1 || '%' OR source ILIKE '%' || $1 || '%')
  AND ($2 = 0 OR year >= $2)
  AND ($3 = 0 OR year <= $3)
GROUP BY sector
ORDER BY total DESC
LIMIT 1`

// Summary runs the aggregate queries for the given filter.
func (s *Store) Summary(ctx context.Context, f Filter) (*Summary, error) {
	sum := &Summary{Filter: f}

	err := s.db.QueryRow(ctx, summarySQL, f.Keyword, f.FromYear, f.ToYear).
		Scan(&sum.Count, &sum.Total, &sum.FirstYear, &sum.LastYear)
	if err != nil {
		return nil, fmt.Errorf("querying emissions summary: %w", err)
	}
	if sum.Count == 0 {
		return sum, nil
	}

	rows, err := s.db.Query(ctx, byYearSQL, f.Keyword, f.FromYear, f.ToYear)
	if err != nil {
		return nil, fmt.Errorf("querying yearly totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var yt YearTotal
		if err := rows.Scan(&yt.Year, &yt.Amount); err != nil {
			return nil, fmt.Errorf("scanning yearly total: %w", err)
		}
		sum.ByYear = append(sum.ByYear, yt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading yearly totals: %w", err)
	}

	err = s.db.QueryRow(ctx, topSectorSQL, f.Keyword, f.FromYear, f.ToYear).
		Scan(&sum.TopSector, &sum.TopAmount)
	if err != nil {
		return nil, fmt.Errorf("querying top sector: %w", err)
	}

	return sum, nil
}

// Insert adds records to the emissions table.
func (s *Store) Insert(ctx context.Context, records []Record) error {
	for _, r := range records {
		_, err := s.db.Exec(ctx,
			`INSERT INTO emissions (year, sector, source, amount_ktco2) VALUES ($1, $2, $3, $4)`,
			r.Year, r.Sector, r.Source, r.Amount)
		if err != nil {
			return fmt.Errorf("inserting emissions record (year=%d sector=%s): %w", r.Year, r.Sector, err)
		}
	}
	s.logger.Debug("inserted emissions records", "count", len(records))
	return nil
}
