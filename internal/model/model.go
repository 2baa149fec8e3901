// Package model 提供评估控制台的数据模型
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 自由结构的 JSON 对象
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON source type %T", value)
	}
	return json.Unmarshal(b, j)
}
