package model

import (
	"fmt"
	"time"
)

// TimestampLayout はAPI境界でのタイムスタンプ表示形式。
const TimestampLayout = "2006-01-02 15:04:05"

// FormattedTime はタイムスタンプを「YYYY-MM-DD HH:MM:SS」形式で
// シリアライズするtime.Timeのラッパー。DBのネイティブ表現のまま
// レスポンスに出さないための境界専用型。
type FormattedTime time.Time

// MarshalJSON はjson.Marshalerを実装する。
func (t FormattedTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(t).Format(TimestampLayout))), nil
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (t *FormattedTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid timestamp: %s", s)
	}
	parsed, err := time.Parse(TimestampLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	*t = FormattedTime(parsed)
	return nil
}

// Time は内部のtime.Timeを返す。
func (t FormattedTime) Time() time.Time {
	return time.Time(t)
}
