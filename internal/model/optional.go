package model

import "encoding/json"

// Optional は部分更新ペイロードのフィールドを表す。
// JSONで「フィールドが存在しない」「nullが明示された」「値が設定された」の
// 3状態を区別する。存在しないフィールドは更新対象外、明示されたnullは
// NULLへの更新として扱う。
type Optional[T any] struct {
	Set   bool // ペイロードにフィールドが存在したか
	Valid bool // 値が非nullか
	Value T
}

// NewOptional は値ありのOptionalを生成する。
func NewOptional[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// NewOptionalNull は明示的にnullが設定されたOptionalを生成する。
func NewOptionalNull[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// このメソッドが呼ばれた時点でフィールドは存在しているためSetをtrueにする。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// MarshalJSON はjson.Marshalerを実装する。
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr は値が設定されている場合はそのポインタを、null/未設定の場合はnilを返す。
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
