package datetime

import (
	"testing"
	"time"
)

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateLayout, "invalid-date")
}

func TestParseDateIsUTCMidnight(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", d.Location())
	}
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Errorf("expected midnight, got %v", d)
	}
}

func TestParseDateRejectsOtherLayouts(t *testing.T) {
	for _, input := range []string{"15/03/2024", "2024-03", "2024-13-01", ""} {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("ParseDate(%q) expected error", input)
		}
	}
}

func TestOffsetDateMonthEnds(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{"Zero offset", "2024-01-31", 0, "2024-01-31"},
		{"Jan 31 plus one in leap year", "2024-01-31", 1, "2024-03-02"},
		{"Jan 31 plus one in common year", "2023-01-31", 1, "2023-03-03"},
		{"Jan 30 plus one in common year", "2023-01-30", 1, "2023-03-02"},
		{"Jan 29 plus one in leap year", "2024-01-29", 1, "2024-02-29"},
		{"Jan 28 plus one", "2023-01-28", 1, "2023-02-28"},
		{"Mar 31 plus one", "2023-03-31", 1, "2023-05-01"},
		{"Aug 31 plus one", "2023-08-31", 1, "2023-10-01"},
		{"Dec 31 plus two", "2023-12-31", 2, "2024-03-02"},
		{"Feb 29 plus twelve", "2024-02-29", 12, "2025-03-01"},
		{"Year boundary", "2023-11-15", 3, "2024-02-15"},
		{"Long term", "2020-02-10", 239, "2040-01-10"},
		{"Negative offset", "2024-03-31", -1, "2024-03-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, tt.months)
			if err != nil {
				t.Fatalf("OffsetDate() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("OffsetDate(%s, %d) = %s, expected %s", tt.date, tt.months, result, tt.expected)
			}
		})
	}
}

func TestOffsetDateInvalid(t *testing.T) {
	result, err := OffsetDate("2024/01/31", 1)
	if err == nil {
		t.Fatal("expected error for invalid date")
	}
	if result != "2024/01/31" {
		t.Errorf("expected input echoed back on error, got %s", result)
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		date         string
		expectedEnd  string
		expectedPrev string
	}{
		{"2024-02-10", "2024-02-29", "2024-01-31"},
		{"2023-02-10", "2023-02-28", "2023-01-31"},
		{"2024-01-05", "2024-01-31", "2023-12-31"},
		{"2024-03-31", "2024-03-31", "2024-02-29"},
		{"2024-12-01", "2024-12-31", "2024-11-30"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d := MustParseTime(DateLayout, tt.date)
			if got := FormatDate(LastDayOfMonth(d)); got != tt.expectedEnd {
				t.Errorf("LastDayOfMonth(%s) = %s, expected %s", tt.date, got, tt.expectedEnd)
			}
			if got := FormatDate(LastDayOfPreviousMonth(d)); got != tt.expectedPrev {
				t.Errorf("LastDayOfPreviousMonth(%s) = %s, expected %s", tt.date, got, tt.expectedPrev)
			}
		})
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 5, 31, 22, 30, 0, 0, loc)

	if got := FormatDate(Today(now)); got != "2024-06-01" {
		t.Errorf("Today() = %s, expected 2024-06-01", got)
	}
}

func TestDateBeforeDate(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		second   string
		expected bool
		wantErr  bool
	}{
		{"Earlier", "2024-01-09", "2024-01-10", true, false},
		{"Same day", "2024-01-10", "2024-01-10", false, false},
		{"Later", "2024-01-11", "2024-01-10", false, false},
		{"Invalid first", "bad", "2024-01-10", false, true},
		{"Invalid second", "2024-01-10", "bad", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DateBeforeDate(tt.first, tt.second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DateBeforeDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("DateBeforeDate(%s, %s) = %v, expected %v", tt.first, tt.second, result, tt.expected)
			}
		})
	}
}
