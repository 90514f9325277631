package domain

import (
	"time"

	"gorm.io/datatypes"
)

type TestType string

const (
	TestTypeLanding  TestType = "landing"
	TestTypeCTA      TestType = "cta"
	TestTypeHeadline TestType = "headline"
	TestTypeImage    TestType = "image"
	TestTypeContent  TestType = "content"
	TestTypeLayout   TestType = "layout"
	TestTypeColor    TestType = "color"
	TestTypeCustom   TestType = "custom"
)

type TestStatus string

const (
	StatusDraft     TestStatus = "draft"
	StatusRunning   TestStatus = "running"
	StatusPaused    TestStatus = "paused"
	StatusCompleted TestStatus = "completed"
)

// CREATE TABLE public.ab_tests (
//     id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name               TEXT NOT NULL,
//     test_type          TEXT NOT NULL DEFAULT 'landing',
//     status             TEXT NOT NULL DEFAULT 'draft',
//     target_url         TEXT,
//     conversion_metric  TEXT,
//     target_sample_size INT NOT NULL DEFAULT 1000,
//     min_confidence     NUMERIC NOT NULL DEFAULT 95,
//     started_at         TIMESTAMPTZ,
//     ended_at           TIMESTAMPTZ,
//     created_at         TIMESTAMPTZ DEFAULT NOW(),
//     updated_at         TIMESTAMPTZ DEFAULT NOW()
// );

type Test struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"column:name;not null" json:"name"`
	Type             TestType   `gorm:"column:test_type;not null;default:landing" json:"test_type"`
	Status           TestStatus `gorm:"column:status;not null;default:draft" json:"status"`
	TargetURL        string     `gorm:"column:target_url;type:text" json:"target_url"`
	ConversionMetric string     `gorm:"column:conversion_metric" json:"conversion_metric"`
	TargetSampleSize int        `gorm:"column:target_sample_size;not null;default:1000" json:"target_sample_size"`
	MinConfidence    float64    `gorm:"column:min_confidence;type:numeric;not null;default:95" json:"min_confidence"`
	StartedAt        *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	EndedAt          *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Variants []Variant `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

func (Test) TableName() string {
	return "ab_tests"
}

type Variant struct {
	ID             uint                                  `gorm:"primaryKey" json:"id"`
	TestID         uint                                  `gorm:"column:test_id;not null;index" json:"test_id"`
	Name           string                                `gorm:"column:name;not null" json:"name"`
	IsControl      bool                                  `gorm:"column:is_control;not null;default:false" json:"is_control"`
	Content        datatypes.JSONType[map[string]string] `gorm:"column:content;type:jsonb" json:"content"`
	Impressions    int64                                 `gorm:"column:impressions;not null;default:0" json:"impressions"`
	Conversions    int64                                 `gorm:"column:conversions;not null;default:0" json:"conversions"`
	ConversionRate float64                               `gorm:"column:conversion_rate;type:numeric;not null;default:0" json:"conversion_rate"`
	CreatedAt      time.Time                             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time                             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Variant) TableName() string {
	return "ab_variants"
}

// Hit is one recorded impression. Append-only except for the single
// converted=false -> true transition.
type Hit struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	VariantID      uint              `gorm:"column:variant_id;not null;index:idx_hits_variant_session" json:"variant_id"`
	SessionID      string            `gorm:"column:session_id;not null;index:idx_hits_variant_session" json:"session_id"`
	Device         string            `gorm:"column:device" json:"device,omitempty"`
	IPHash         string            `gorm:"column:ip_hash" json:"-"`
	UserAgent      string            `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Context        datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context,omitempty"`
	Converted      bool              `gorm:"column:converted;not null;default:false" json:"converted"`
	ConversionType string            `gorm:"column:conversion_type" json:"conversion_type,omitempty"`
	ConvertedAt    *time.Time        `gorm:"column:converted_at" json:"converted_at,omitempty"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Hit) TableName() string {
	return "ab_hits"
}
