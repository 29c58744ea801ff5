package model

import (
	"encoding/json"
	"testing"
	"time"
)

// TestFormattedTime_MarshalJSON はタイムスタンプが「YYYY-MM-DD HH:MM:SS」形式で
// シリアライズされることを検証する。
func TestFormattedTime_MarshalJSON(t *testing.T) {
	ts := FormattedTime(time.Date(2025, 6, 15, 9, 30, 45, 0, time.UTC))

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}

	want := `"2025-06-15 09:30:45"`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}

// TestFormattedTime_RoundTrip はシリアライズとデシリアライズの往復を検証する。
func TestFormattedTime_RoundTrip(t *testing.T) {
	original := FormattedTime(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}

	var parsed FormattedTime
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal returned error: %v", err)
	}

	if !parsed.Time().Equal(original.Time()) {
		t.Errorf("round trip = %v, want %v", parsed.Time(), original.Time())
	}
}

// TestFormattedTime_UnmarshalJSON_Invalid は不正な形式がエラーになることを検証する。
func TestFormattedTime_UnmarshalJSON_Invalid(t *testing.T) {
	cases := []string{
		`"2025-06-15T09:30:45Z"`,
		`"not a timestamp"`,
		`12345`,
	}

	for _, input := range cases {
		var ts FormattedTime
		if err := json.Unmarshal([]byte(input), &ts); err == nil {
			t.Errorf("expected error for input %s, got nil", input)
		}
	}
}
