// 指示: miu200521358
package rigstate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cogentcore.org/core/base/ordmap"
)

// OrderedMap は挿入順を保つ JSON オブジェクトを表す。
type OrderedMap[V any] struct {
	items *ordmap.Map[string, V]
}

// NewOrderedMap は空の順序付きマップを生成する。
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{items: ordmap.New[string, V]()}
}

// Set は値を設定する。既存キーは位置を保ったまま上書きする。
func (m *OrderedMap[V]) Set(key string, value V) {
	if m.items == nil {
		m.items = ordmap.New[string, V]()
	}
	m.items.Add(key, value)
}

// Get は値を返す。
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	if m == nil || m.items == nil {
		var zero V
		return zero, false
	}
	return m.items.ValueByKeyTry(key)
}

// Keys は挿入順のキー一覧を返す。
func (m *OrderedMap[V]) Keys() []string {
	if m == nil || m.items == nil {
		return nil
	}
	return m.items.Keys()
}

// Len は要素数を返す。
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.items.Len()
}

// MarshalJSON はキー順を保って出力する。
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBufferString("{")
	if m != nil && m.items != nil {
		for i, kv := range m.items.Order {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(kv.Key)
			if err != nil {
				return nil, err
			}
			valueBytes, err := json.Marshal(kv.Value)
			if err != nil {
				return nil, fmt.Errorf("値の出力に失敗しました: %s: %w", kv.Key, err)
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			buf.Write(valueBytes)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON は出現順にキーを読み込む。
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("オブジェクトではありません: %v", token)
	}
	m.items = ordmap.New[string, V]()
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("キーが文字列ではありません: %v", keyToken)
		}
		var value V
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("値の読み込みに失敗しました: %s: %w", key, err)
		}
		m.Set(key, value)
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	return nil
}
