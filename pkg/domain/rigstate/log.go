// 指示: miu200521358
package rigstate

import "fmt"

// Log は有効な操作の記録を登録順に保持する。
type Log struct {
	entries []*Entry
}

// NewLog は空のログを生成する。
func NewLog() *Log {
	return &Log{}
}

// Append はエントリを末尾に追加する。キー重複はエラー。
func (l *Log) Append(entry *Entry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("リグ状態エントリのキーが未指定です")
	}
	if l.Contains(entry.Key) {
		return fmt.Errorf("リグ状態エントリが重複しています: %s", entry.Key)
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Remove はキーのエントリを取り除いて返す。
func (l *Log) Remove(key string) (*Entry, bool) {
	for i, entry := range l.entries {
		if entry.Key == key {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return entry, true
		}
	}
	return nil, false
}

// Get はキーのエントリを返す。
func (l *Log) Get(key string) (*Entry, bool) {
	if l == nil {
		return nil, false
	}
	for _, entry := range l.entries {
		if entry.Key == key {
			return entry, true
		}
	}
	return nil, false
}

// Contains はキーのエントリが存在するか判定する。
func (l *Log) Contains(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// Entries は登録順のエントリ一覧を返す。
func (l *Log) Entries() []*Entry {
	if l == nil {
		return nil
	}
	return append([]*Entry(nil), l.entries...)
}

// Len はエントリ数を返す。
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Keys は登録順のキー一覧を返す。
func (l *Log) Keys() []string {
	keys := make([]string, 0, l.Len())
	for _, entry := range l.Entries() {
		keys = append(keys, entry.Key)
	}
	return keys
}

// FindByJoint は関節名を含むエントリを返す。
func (l *Log) FindByJoint(name string) []*Entry {
	found := make([]*Entry, 0)
	for _, entry := range l.Entries() {
		for _, joint := range entry.Joints {
			if joint == name {
				found = append(found, entry)
				break
			}
		}
	}
	return found
}

// Clear は全エントリを破棄する。
func (l *Log) Clear() {
	l.entries = nil
}

// Clone はログの深い複製を返す。
func (l *Log) Clone() *Log {
	out := NewLog()
	for _, entry := range l.Entries() {
		out.entries = append(out.entries, entry.Copy())
	}
	return out
}
