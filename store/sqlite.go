// Package store は、データの永続化機能を提供します。
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/genbalog/genbalog/db"
	"github.com/genbalog/genbalog/model"
)

// ProjectStore はプロジェクトの保存と取得を行うインターフェースです。
type ProjectStore interface {
	// CreateProject は新しいプロジェクトを作成します。
	CreateProject(ctx context.Context, project *model.Project) error
	// GetProject は指定されたIDのプロジェクトを取得します。
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// UpdateProject は指定されたプロジェクトを更新します。
	UpdateProject(ctx context.Context, project *model.Project) error
	// DeleteProject はプロジェクトと配下の写真をすべて削除します。
	DeleteProject(ctx context.Context, id uuid.UUID) error
	// ListProjects はすべてのプロジェクトを更新日時の降順で取得します。
	ListProjects(ctx context.Context) ([]*model.Project, error)
}

// PhotoStore は写真メタデータの保存と取得を行うインターフェースです。
type PhotoStore interface {
	// CreatePhoto は新しい写真を登録します。
	CreatePhoto(ctx context.Context, photo *model.ProjectPhoto) error
	// GetPhoto は指定されたIDの写真を取得します。
	GetPhoto(ctx context.Context, id uuid.UUID) (*model.ProjectPhoto, error)
	// UpdatePhoto は指定された写真を更新します。
	UpdatePhoto(ctx context.Context, photo *model.ProjectPhoto) error
	// DeletePhoto は指定されたIDの写真を削除します。
	DeletePhoto(ctx context.Context, id uuid.UUID) error
	// ListPhotos は指定されたプロジェクトの写真を撮影日の昇順で取得します。
	ListPhotos(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectPhoto, error)
	// Close はストアの接続を閉じます。
	Close() error
}

// Store はプロジェクトと写真の両方を扱う永続化インターフェースです。
type Store interface {
	ProjectStore
	PhotoStore
}

// SQLiteStore はSQLiteを使用したProjectStore/PhotoStoreの実装です。
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore は新しいSQLiteStoreを作成します。
// データディレクトリが存在しない場合は作成し、マイグレーションを実行します。
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "genbalog.db")

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := db.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// CreateProject は新しいプロジェクトをデータベースに保存します。
func (s *SQLiteStore) CreateProject(ctx context.Context, project *model.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO projects (
			id, construction_name, construction_number, field_name,
			orderer_name, orderer_code, contractor_name, contractor_code,
			location, start_date, end_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID.String(),
		project.ConstructionName,
		project.ConstructionNumber,
		project.FieldName,
		project.OrdererName,
		project.OrdererCode,
		project.ContractorName,
		project.ContractorCode,
		project.Location,
		project.StartDate.Format(time.RFC3339),
		project.EndDate.Format(time.RFC3339),
		project.CreatedAt.Format(time.RFC3339),
		project.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject は指定されたIDのプロジェクトを取得します。
func (s *SQLiteStore) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, construction_name, construction_number, field_name,
			orderer_name, orderer_code, contractor_name, contractor_code,
			location, start_date, end_date, created_at, updated_at
		FROM projects WHERE id = ?`, id.String())
	return scanProject(row)
}

// UpdateProject は指定されたプロジェクトを更新します。
func (s *SQLiteStore) UpdateProject(ctx context.Context, project *model.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	result, err := s.conn.ExecContext(ctx, `
		UPDATE projects SET
			construction_name = ?, construction_number = ?, field_name = ?,
			orderer_name = ?, orderer_code = ?, contractor_name = ?, contractor_code = ?,
			location = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		project.ConstructionName,
		project.ConstructionNumber,
		project.FieldName,
		project.OrdererName,
		project.OrdererCode,
		project.ContractorName,
		project.ContractorCode,
		project.Location,
		project.StartDate.Format(time.RFC3339),
		project.EndDate.Format(time.RFC3339),
		time.Now().Format(time.RFC3339),
		project.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

// DeleteProject はプロジェクトと配下の写真をトランザクション内で削除します。
func (s *SQLiteStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// トランザクションをロールバックするための遅延関数
	defer func() {
		if tx != nil {
			tx.Rollback() // 成功した場合は既にnilになっているためエラーは無視
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE project_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete project photos: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrProjectNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil // コミットが成功したのでnilにして遅延関数でのロールバックを防ぐ

	return nil
}

// ListProjects はすべてのプロジェクトを更新日時の降順で取得します。
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, construction_name, construction_number, field_name,
			orderer_name, orderer_code, contractor_name, contractor_code,
			location, start_date, end_date, created_at, updated_at
		FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// rowScanner はsql.Rowとsql.Rowsの共通部分です。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		idStr                          string
		startStr, endStr               string
		createdStr, updatedStr         string
		project                        model.Project
	)
	err := row.Scan(
		&idStr,
		&project.ConstructionName,
		&project.ConstructionNumber,
		&project.FieldName,
		&project.OrdererName,
		&project.OrdererCode,
		&project.ContractorName,
		&project.ContractorCode,
		&project.Location,
		&startStr,
		&endStr,
		&createdStr,
		&updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	project.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in database: %w", err)
	}
	if project.StartDate, err = time.Parse(time.RFC3339, startStr); err != nil {
		return nil, fmt.Errorf("failed to parse start date: %w", err)
	}
	if project.EndDate, err = time.Parse(time.RFC3339, endStr); err != nil {
		return nil, fmt.Errorf("failed to parse end date: %w", err)
	}
	if project.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if project.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &project, nil
}

// CreatePhoto は新しい写真をデータベースに保存します。
// プロジェクトの存在はアプリケーションレベルで確認します。
func (s *SQLiteStore) CreatePhoto(ctx context.Context, photo *model.ProjectPhoto) error {
	if err := photo.Validate(); err != nil {
		return err
	}

	if _, err := s.GetProject(ctx, photo.ProjectID); err != nil {
		return err
	}

	var lat, lon any
	if photo.Location != nil {
		lat = photo.Location.Latitude
		lon = photo.Location.Longitude
	}

	shootingStr := ""
	if !photo.ShootingDate.IsZero() {
		shootingStr = photo.ShootingDate.Format(time.RFC3339)
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO photos (
			id, project_id, file_name, file_path, file_size, shooting_date,
			title, major_category, category, construction_type, work_type,
			detail_type, shooting_location, is_representative, remarks,
			latitude, longitude, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.ID.String(),
		photo.ProjectID.String(),
		photo.FileName,
		photo.FilePath,
		photo.FileSize,
		shootingStr,
		photo.Title,
		photo.MajorCategory,
		photo.Category,
		photo.ConstructionType,
		photo.WorkType,
		photo.DetailType,
		photo.ShootingLocation,
		photo.IsRepresentative,
		photo.Remarks,
		lat,
		lon,
		photo.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetPhoto は指定されたIDの写真を取得します。
func (s *SQLiteStore) GetPhoto(ctx context.Context, id uuid.UUID) (*model.ProjectPhoto, error) {
	row := s.conn.QueryRowContext(ctx, photoSelectColumns+` WHERE id = ?`, id.String())
	return scanPhoto(row)
}

// UpdatePhoto は指定された写真のメタデータを更新します。
func (s *SQLiteStore) UpdatePhoto(ctx context.Context, photo *model.ProjectPhoto) error {
	if err := photo.Validate(); err != nil {
		return err
	}

	var lat, lon any
	if photo.Location != nil {
		lat = photo.Location.Latitude
		lon = photo.Location.Longitude
	}

	shootingStr := ""
	if !photo.ShootingDate.IsZero() {
		shootingStr = photo.ShootingDate.Format(time.RFC3339)
	}

	result, err := s.conn.ExecContext(ctx, `
		UPDATE photos SET
			file_name = ?, file_path = ?, file_size = ?, shooting_date = ?,
			title = ?, major_category = ?, category = ?, construction_type = ?,
			work_type = ?, detail_type = ?, shooting_location = ?,
			is_representative = ?, remarks = ?, latitude = ?, longitude = ?
		WHERE id = ?`,
		photo.FileName,
		photo.FilePath,
		photo.FileSize,
		shootingStr,
		photo.Title,
		photo.MajorCategory,
		photo.Category,
		photo.ConstructionType,
		photo.WorkType,
		photo.DetailType,
		photo.ShootingLocation,
		photo.IsRepresentative,
		photo.Remarks,
		lat,
		lon,
		photo.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrPhotoNotFound
	}
	return nil
}

// DeletePhoto は指定されたIDの写真を削除します。
func (s *SQLiteStore) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrPhotoNotFound
	}
	return nil
}

// ListPhotos は指定されたプロジェクトの写真を撮影日の昇順で取得します。
// 撮影日が未設定の写真は末尾に並びます。
func (s *SQLiteStore) ListPhotos(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectPhoto, error) {
	rows, err := s.conn.QueryContext(ctx,
		photoSelectColumns+` WHERE project_id = ?
		ORDER BY CASE WHEN shooting_date = '' THEN 1 ELSE 0 END, shooting_date ASC, created_at ASC`,
		projectID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*model.ProjectPhoto
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

const photoSelectColumns = `
	SELECT id, project_id, file_name, file_path, file_size, shooting_date,
		title, major_category, category, construction_type, work_type,
		detail_type, shooting_location, is_representative, remarks,
		latitude, longitude, created_at
	FROM photos`

func scanPhoto(row rowScanner) (*model.ProjectPhoto, error) {
	var (
		idStr, projectIDStr    string
		shootingStr, createdStr string
		lat, lon               sql.NullFloat64
		photo                  model.ProjectPhoto
	)
	err := row.Scan(
		&idStr,
		&projectIDStr,
		&photo.FileName,
		&photo.FilePath,
		&photo.FileSize,
		&shootingStr,
		&photo.Title,
		&photo.MajorCategory,
		&photo.Category,
		&photo.ConstructionType,
		&photo.WorkType,
		&photo.DetailType,
		&photo.ShootingLocation,
		&photo.IsRepresentative,
		&photo.Remarks,
		&lat,
		&lon,
		&createdStr,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}

	if photo.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in database: %w", err)
	}
	if photo.ProjectID, err = uuid.Parse(projectIDStr); err != nil {
		return nil, fmt.Errorf("invalid project UUID in database: %w", err)
	}
	if shootingStr != "" {
		if photo.ShootingDate, err = time.Parse(time.RFC3339, shootingStr); err != nil {
			return nil, fmt.Errorf("failed to parse shooting date: %w", err)
		}
	}
	if photo.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if lat.Valid && lon.Valid {
		photo.Location = &model.GeoLocation{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &photo, nil
}
