// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Project は工事プロジェクトを表すモデルです。
// 電子納品のINDEX_D.XMLに必要な工事情報を保持します。
type Project struct {
	ID                 uuid.UUID `json:"id"`
	ConstructionName   string    `json:"construction_name"`   // 工事名称
	ConstructionNumber string    `json:"construction_number"` // 工事番号
	FieldName          string    `json:"field_name"`          // 対象分野（土木・営繕など）
	OrdererName        string    `json:"orderer_name"`        // 発注者名
	OrdererCode        string    `json:"orderer_code"`        // 発注者コード
	ContractorName     string    `json:"contractor_name"`     // 請負者名
	ContractorCode     string    `json:"contractor_code"`     // 請負者コード
	Location           string    `json:"location"`            // 施工場所
	StartDate          time.Time `json:"start_date"`          // 工期開始日
	EndDate            time.Time `json:"end_date"`            // 工期終了日
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewProject は新しいProjectインスタンスを作成します。
func NewProject(constructionName, contractorName string, startDate, endDate time.Time) (*Project, error) {
	now := time.Now()
	p := &Project{
		ID:               uuid.New(),
		ConstructionName: constructionName,
		ContractorName:   contractorName,
		StartDate:        startDate,
		EndDate:          endDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadProject は既存のProjectインスタンスを作成します。
func LoadProject(id uuid.UUID, constructionName, contractorName string, startDate, endDate, createdAt, updatedAt time.Time) (*Project, error) {
	if id == uuid.Nil {
		return nil, errors.New("id is required for loaded project")
	}
	p := &Project{
		ID:               id,
		ConstructionName: constructionName,
		ContractorName:   contractorName,
		StartDate:        startDate,
		EndDate:          endDate,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate はプロジェクトのデータバリデーションを行います。
func (p *Project) Validate() error {
	if p.ConstructionName == "" {
		return errors.New("construction_name is required")
	}
	if p.ContractorName == "" {
		return errors.New("contractor_name is required")
	}
	if p.StartDate.IsZero() {
		return errors.New("start_date is required")
	}
	if p.EndDate.IsZero() {
		return errors.New("end_date is required")
	}
	if p.EndDate.Before(p.StartDate) {
		return errors.New("end_date must not be before start_date")
	}
	return nil
}

// ExportMetadata はプロジェクトから電子納品用のメタデータを生成します。
func (p *Project) ExportMetadata() *ExportMetadata {
	return &ExportMetadata{
		ConstructionName:   p.ConstructionName,
		ConstructionNumber: p.ConstructionNumber,
		FieldName:          p.FieldName,
		OrdererName:        p.OrdererName,
		OrdererCode:        p.OrdererCode,
		ContractorName:     p.ContractorName,
		ContractorCode:     p.ContractorCode,
		Location:           p.Location,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
	}
}

// ExportMetadata は電子納品パッケージの工事メタデータです。
// XML生成とレポート生成が参照します。必須項目の欠落はリクエストレベルで
// 400相当として扱い、パイプラインには渡しません。
type ExportMetadata struct {
	ConstructionName   string    `json:"construction_name"`
	ConstructionNumber string    `json:"construction_number,omitempty"`
	FieldName          string    `json:"field_name,omitempty"`
	OrdererName        string    `json:"orderer_name,omitempty"`
	OrdererCode        string    `json:"orderer_code,omitempty"`
	ContractorName     string    `json:"contractor_name"`
	ContractorCode     string    `json:"contractor_code,omitempty"`
	Location           string    `json:"location,omitempty"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	SoftwareName       string    `json:"software_name,omitempty"` // ソフトメーカ用TAGに出力
}

// Validate はメタデータの必須項目を検証します。
func (m *ExportMetadata) Validate() error {
	if m.ConstructionName == "" {
		return NewValidationError("construction_name is required")
	}
	if m.ContractorName == "" {
		return NewValidationError("contractor_name is required")
	}
	if m.StartDate.IsZero() {
		return NewValidationError("start_date is required")
	}
	if m.EndDate.IsZero() {
		return NewValidationError("end_date is required")
	}
	return nil
}
