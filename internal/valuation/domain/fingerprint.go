package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint 计算 (模型标识 + 规范化参数) 的确定性指纹，用作缓存键。
// 规范化规则：对象键按字典序排序，浮点数统一用最短往返格式输出，
// 因此逻辑上相同的输入无论字段顺序如何都会得到相同指纹。
func Fingerprint(model Model, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var decoded any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	var b strings.Builder
	b.WriteString(string(model))
	b.WriteByte('|')
	writeCanonical(&b, decoded)

	sum := sha256.Sum256([]byte(b.String()))
	return string(model) + ":" + hex.EncodeToString(sum[:]), nil
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			b.WriteString(val.String())
			return
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case string:
		b.WriteString(strconv.Quote(val))
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case nil:
		b.WriteString("null")
	default:
		fmt.Fprintf(b, "%v", val)
	}
}
