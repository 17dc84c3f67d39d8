// Package extract 从字段名不稳定的供应商 JSON 响应里按顺序尝试取值
package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Rule 一条取值规则，Path 是点分隔的字段路径，比如 "obj.orderList.0.orderNo"
type Rule struct {
	Path string
	// Note 记录这条规则对应的供应商字段假设
	Note string
}

// Rules 按顺序尝试，第一个取到非空值的规则生效
type Rules []Rule

// Decode 把响应体解析成通用结构
func Decode(data []byte) (map[string]any, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Body 响应体的通用结构，可以直接作为执行器的解析目标
type Body map[string]any

func (b *Body) UnmarshalJSON(data []byte) error {
	m, err := Decode(data)
	if err != nil {
		return err
	}
	*b = m
	return nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// Time 返回第一个能按常见格式解析的时间，数字按秒级时间戳处理
func (rs Rules) Time(body map[string]any) (time.Time, bool) {
	for _, r := range rs {
		v, ok := lookup(body, r.Path)
		if !ok {
			continue
		}
		if n, ok := v.(json.Number); ok {
			if sec, err := n.Int64(); err == nil && sec > 0 {
				return time.Unix(sec, 0).UTC(), true
			}
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// String 返回第一个命中的字符串值，数字会被格式化成字符串
func (rs Rules) String(body map[string]any) (string, bool) {
	for _, r := range rs {
		v, ok := lookup(body, r.Path)
		if !ok {
			continue
		}
		if s, ok := asString(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Bool 返回第一个命中的布尔值，兼容 "true"/"false" 和 0/1
func (rs Rules) Bool(body map[string]any) (bool, bool) {
	for _, r := range rs {
		v, ok := lookup(body, r.Path)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val, true
		case string:
			if b, err := strconv.ParseBool(val); err == nil {
				return b, true
			}
		case json.Number:
			if n, err := val.Int64(); err == nil {
				return n != 0, true
			}
		}
	}
	return false, false
}

// Slice 返回第一个命中的数组
func (rs Rules) Slice(body map[string]any) ([]any, bool) {
	for _, r := range rs {
		v, ok := lookup(body, r.Path)
		if !ok {
			continue
		}
		if arr, ok := v.([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

func lookup(body map[string]any, path string) (any, bool) {
	var cur any = body
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok || v == nil {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func asString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
