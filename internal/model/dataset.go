package model

import (
	"time"
)

// SourceType 数据集来源
type SourceType string

const (
	SourceTypeGenerated SourceType = "generated" // 由源文件生成
	SourceTypeUploaded  SourceType = "uploaded"  // 上传 CSV 并映射
)

// 预览样本上限
const MaxSampleRows = 10

// SampleRow 预览样本行
type SampleRow struct {
	Index    int               `json:"index" yaml:"index"`
	Question string            `json:"question" yaml:"question"`
	Answer   string            `json:"answer" yaml:"answer"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// GroundTruth Ground Truth 数据集
type GroundTruth struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	RowsCount   int         `json:"rows_count" yaml:"rows_count"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"updated_at"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	FilePath    string      `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	FileHash    string      `json:"file_hash,omitempty" yaml:"file_hash,omitempty"`
	SourceType  SourceType  `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	SchemaMap   SchemaMap   `json:"schema_map,omitempty" yaml:"schema_map,omitempty"`
	Metadata    JSON        `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Sample      []SampleRow `json:"sample" yaml:"sample"`
}

// HasTag 是否包含标签
func (g *GroundTruth) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone 深拷贝，避免调用方修改仓库内的切片和映射
func (g GroundTruth) Clone() GroundTruth {
	out := g
	if g.Tags != nil {
		out.Tags = append([]string(nil), g.Tags...)
	}
	if g.SchemaMap != nil {
		out.SchemaMap = make(SchemaMap, len(g.SchemaMap))
		for k, v := range g.SchemaMap {
			out.SchemaMap[k] = v
		}
	}
	if g.Metadata != nil {
		out.Metadata = make(JSON, len(g.Metadata))
		for k, v := range g.Metadata {
			out.Metadata[k] = v
		}
	}
	if g.Sample != nil {
		out.Sample = make([]SampleRow, len(g.Sample))
		for i, row := range g.Sample {
			out.Sample[i] = row
			if row.Meta != nil {
				meta := make(map[string]string, len(row.Meta))
				for k, v := range row.Meta {
					meta[k] = v
				}
				out.Sample[i].Meta = meta
			}
		}
	}
	return out
}

// ========== Schema 映射 ==========

// 逻辑字段
const (
	FieldQuestion    = "question"
	FieldGroundTruth = "ground_truth"
	FieldCategory    = "category"
	FieldID          = "id"
)

// SchemaField 标准 schema 字段
type SchemaField struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label" yaml:"label"`
	Required bool   `json:"required" yaml:"required"`
}

// StandardSchema 标准 schema，顺序即映射对话框中的展示顺序
var StandardSchema = []SchemaField{
	{Key: FieldQuestion, Label: "question (required)", Required: true},
	{Key: FieldGroundTruth, Label: "ground_truth (required)", Required: true},
	{Key: FieldCategory, Label: "category (optional)"},
	{Key: FieldID, Label: "id (optional)"},
}

// SchemaMap 逻辑字段 -> 源 CSV 列名
type SchemaMap map[string]string
