// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GeoLocation は写真の撮影位置（10進数の緯度経度）を表します。
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProjectPhoto は工事プロジェクトに登録された1枚の写真を表すモデルです。
// エクスポート実行中は不変として扱います。
type ProjectPhoto struct {
	ID               uuid.UUID    `json:"id"`
	ProjectID        uuid.UUID    `json:"project_id"`
	FileName         string       `json:"file_name"` // アップロード時の元ファイル名
	FilePath         string       `json:"file_path"`
	FileSize         int64        `json:"file_size"`
	ShootingDate     time.Time    `json:"shooting_date"` // 撮影年月日
	Title            string       `json:"title"`         // 写真タイトル
	MajorCategory    string       `json:"major_category"` // 写真-大分類
	Category         string       `json:"category"`       // 写真区分
	ConstructionType string       `json:"construction_type"` // 工種
	WorkType         string       `json:"work_type"`         // 種別
	DetailType       string       `json:"detail_type"`       // 細別
	ShootingLocation string       `json:"shooting_location"` // 撮影箇所
	IsRepresentative bool         `json:"is_representative"` // 代表写真
	Remarks          string       `json:"remarks"`
	Location         *GeoLocation `json:"location,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// NewProjectPhoto は新しいProjectPhotoインスタンスを作成します。
// IDは自動生成されます。
func NewProjectPhoto(projectID uuid.UUID, fileName string, fileSize int64) (*ProjectPhoto, error) {
	p := &ProjectPhoto{
		ID:        uuid.New(),
		ProjectID: projectID,
		FileName:  fileName,
		FileSize:  fileSize,
		CreatedAt: time.Now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadProjectPhoto は既存のProjectPhotoインスタンスを作成します。
func LoadProjectPhoto(id, projectID uuid.UUID, fileName string, fileSize int64, createdAt time.Time) (*ProjectPhoto, error) {
	if id == uuid.Nil {
		return nil, errors.New("id is required for loaded photo")
	}
	p := &ProjectPhoto{
		ID:        id,
		ProjectID: projectID,
		FileName:  fileName,
		FileSize:  fileSize,
		CreatedAt: createdAt,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate は写真のデータバリデーションを行います。
// タイトルや撮影日の欠落は納品時のバリデーションで検出するため、
// ここでは最低限の整合性のみを確認します。
func (p *ProjectPhoto) Validate() error {
	if p.ProjectID == uuid.Nil {
		return errors.New("project_id is required")
	}
	if p.FileName == "" {
		return errors.New("file_name is required")
	}
	if p.FileSize < 0 {
		return errors.New("file_size must not be negative")
	}
	return nil
}

// Extension はファイル名の拡張子をドットを除いた大文字で返します。
func (p *ProjectPhoto) Extension() string {
	ext := filepath.Ext(p.FileName)
	return strings.ToUpper(strings.TrimPrefix(ext, "."))
}
