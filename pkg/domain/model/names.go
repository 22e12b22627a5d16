// 指示: miu200521358
package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName は関節名を NFC 正規化し前後空白を除く。
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ProxyName は接頭辞付きの代理関節名を返す。
func ProxyName(prefix string, name string) string {
	return prefix + "." + NormalizeName(name)
}

// UniqueName は骨格内で重複しない名前を返す。
func (s *Skeleton) UniqueName(name string) string {
	base := NormalizeName(name)
	if _, ok := s.index[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if _, ok := s.index[candidate]; !ok {
			return candidate
		}
	}
}
