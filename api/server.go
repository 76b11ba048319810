// Package api はgenbalogのAPIサーバー実装を提供します。
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genbalog/genbalog/config"
	"github.com/genbalog/genbalog/imagemeta"
	"github.com/genbalog/genbalog/model"
	"github.com/genbalog/genbalog/store"
)

// Server はAPIサーバーの構造体です。
type Server struct {
	router *http.ServeMux
	store  store.Store
	config *config.Config
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := ErrorResponse{
		Error: message,
		Code:  statusCode,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}

// writeJSON は成功レスポンスをJSON形式で返却します。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(store store.Store, config *config.Config) *Server {
	s := &Server{
		router: http.NewServeMux(),
		store:  store,
		config: config,
	}
	s.routes()
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	// ヘルスチェックエンドポイントは認証不要
	s.router.HandleFunc("GET /healthz", s.handleHealthCheck)

	// すべての保護されたエンドポイントをまずセキュアなルータに登録
	securedHandler := http.NewServeMux()

	// Project endpoints
	securedHandler.HandleFunc("GET /api/v0/projects", s.handleListProjects)
	securedHandler.HandleFunc("POST /api/v0/projects", s.handleCreateProject)
	securedHandler.HandleFunc("GET /api/v0/projects/{project_id}", s.handleGetProject)
	securedHandler.HandleFunc("PUT /api/v0/projects/{project_id}", s.handleUpdateProject)
	securedHandler.HandleFunc("DELETE /api/v0/projects/{project_id}", s.handleDeleteProject)

	// Photo endpoints
	securedHandler.HandleFunc("GET /api/v0/projects/{project_id}/photos", s.handleListPhotos)
	securedHandler.HandleFunc("POST /api/v0/projects/{project_id}/photos", s.handleCreatePhoto)
	securedHandler.HandleFunc("GET /api/v0/photos/{photo_id}", s.handleGetPhoto)
	securedHandler.HandleFunc("PUT /api/v0/photos/{photo_id}", s.handleUpdatePhoto)
	securedHandler.HandleFunc("DELETE /api/v0/photos/{photo_id}", s.handleDeletePhoto)

	// Export endpoint
	securedHandler.HandleFunc("POST /api/v0/projects/{project_id}/export", s.handleExport)

	// 認証ミドルウェアを適用し、メインルータにマウント
	s.router.Handle("/api/", s.authMiddleware(securedHandler))
}

// Run は指定されたアドレスでHTTPサーバーを起動します。
func (s *Server) Run(addr string) error {
	log.Printf("Server starting on %s", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// routesに設定されたルーティングを使用する
	s.router.ServeHTTP(w, r)
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseProjectID はパスパラメータのproject_idを解析します。
func parseProjectID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("project_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project_id: %w", err)
	}
	return id, nil
}

// parseDateField はISO形式（YYYY-MM-DD）の日付文字列を解析します。
func parseDateField(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected YYYY-MM-DD, got %q", name, value)
	}
	return t, nil
}

// CreateProjectParams はプロジェクト作成のパラメータです。
type CreateProjectParams struct {
	ConstructionName   string
	ConstructionNumber string
	FieldName          string
	OrdererName        string
	OrdererCode        string
	ContractorName     string
	ContractorCode     string
	Location           string
	StartDate          time.Time
	EndDate            time.Time
}

// projectRequestBody はプロジェクト作成・更新リクエストの共通ボディです。
type projectRequestBody struct {
	ConstructionName   string `json:"construction_name"`
	ConstructionNumber string `json:"construction_number"`
	FieldName          string `json:"field_name"`
	OrdererName        string `json:"orderer_name"`
	OrdererCode        string `json:"orderer_code"`
	ContractorName     string `json:"contractor_name"`
	ContractorCode     string `json:"contractor_code"`
	Location           string `json:"location"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
}

// NewCreateProjectParams はHTTPリクエストからプロジェクト作成パラメータを生成します。
func NewCreateProjectParams(r *http.Request) (*CreateProjectParams, error) {
	var body projectRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if body.ConstructionName == "" {
		return nil, fmt.Errorf("construction_name is required")
	}
	if body.ContractorName == "" {
		return nil, fmt.Errorf("contractor_name is required")
	}
	startDate, err := parseDateField("start_date", body.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDateField("end_date", body.EndDate)
	if err != nil {
		return nil, err
	}

	return &CreateProjectParams{
		ConstructionName:   body.ConstructionName,
		ConstructionNumber: body.ConstructionNumber,
		FieldName:          body.FieldName,
		OrdererName:        body.OrdererName,
		OrdererCode:        body.OrdererCode,
		ContractorName:     body.ContractorName,
		ContractorCode:     body.ContractorCode,
		Location:           body.Location,
		StartDate:          startDate,
		EndDate:            endDate,
	}, nil
}

// handleCreateProject はプロジェクト作成エンドポイントのハンドラーです。
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewCreateProjectParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 新しいプロジェクトの作成
	project, err := model.NewProject(params.ConstructionName, params.ContractorName, params.StartDate, params.EndDate)
	if err != nil {
		log.Printf("Error creating project: %v", err)
		writeJSONError(w, "Failed to create project", http.StatusBadRequest)
		return
	}
	project.ConstructionNumber = params.ConstructionNumber
	project.FieldName = params.FieldName
	project.OrdererName = params.OrdererName
	project.OrdererCode = params.OrdererCode
	project.ContractorCode = params.ContractorCode
	project.Location = params.Location

	// プロジェクトの保存
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		log.Printf("Error creating project: %v", err)
		writeJSONError(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// handleGetProject は特定のIDのプロジェクトを取得するハンドラーです。
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			writeJSONError(w, fmt.Sprintf("Project with ID %s not found", projectID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting project: %v", err)
		writeJSONError(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// handleUpdateProject はプロジェクト更新をハンドリングします。
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			writeJSONError(w, fmt.Sprintf("Project with ID %s not found", projectID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting project: %v", err)
		writeJSONError(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	params, err := NewCreateProjectParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	project.ConstructionName = params.ConstructionName
	project.ConstructionNumber = params.ConstructionNumber
	project.FieldName = params.FieldName
	project.OrdererName = params.OrdererName
	project.OrdererCode = params.OrdererCode
	project.ContractorName = params.ContractorName
	project.ContractorCode = params.ContractorCode
	project.Location = params.Location
	project.StartDate = params.StartDate
	project.EndDate = params.EndDate

	if err := s.store.UpdateProject(r.Context(), project); err != nil {
		log.Printf("Error updating project: %v", err)
		writeJSONError(w, "Failed to update project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// handleDeleteProject はプロジェクト削除をハンドリングします。
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteProject(r.Context(), projectID); err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			writeJSONError(w, fmt.Sprintf("Project with ID %s not found", projectID), http.StatusNotFound)
			return
		}
		log.Printf("Error deleting project: %v", err)
		writeJSONError(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListProjects はすべてのプロジェクトを取得するハンドラーです。
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		log.Printf("Error listing projects: %v", err)
		writeJSONError(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreatePhotoParams は写真登録のパラメータです。
type CreatePhotoParams struct {
	FileName         string
	FileSize         int64
	ShootingDate     time.Time
	Title            string
	MajorCategory    string
	Category         string
	ConstructionType string
	WorkType         string
	DetailType       string
	ShootingLocation string
	IsRepresentative bool
	Remarks          string
	Location         *model.GeoLocation
	// Data はbase64エンコードされた画像バイト列（任意）。
	// 指定された場合、EXIFから撮影日と位置を自動補完します。
	Data []byte
}

type photoRequestBody struct {
	FileName         string   `json:"file_name"`
	FileSize         int64    `json:"file_size"`
	ShootingDate     string   `json:"shooting_date"`
	Title            string   `json:"title"`
	MajorCategory    string   `json:"major_category"`
	Category         string   `json:"category"`
	ConstructionType string   `json:"construction_type"`
	WorkType         string   `json:"work_type"`
	DetailType       string   `json:"detail_type"`
	ShootingLocation string   `json:"shooting_location"`
	IsRepresentative bool     `json:"is_representative"`
	Remarks          string   `json:"remarks"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Data             string   `json:"data"`
}

// decodeBase64Image はbase64文字列を画像バイト列に変換します。
// data:image/...;base64, のプレフィックスが付いている場合は取り除きます。
func decodeBase64Image(s string) ([]byte, error) {
	if idx := strings.Index(s, ";base64,"); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}

// NewCreatePhotoParams はHTTPリクエストから写真登録パラメータを生成します。
func NewCreatePhotoParams(r *http.Request) (*CreatePhotoParams, error) {
	var body photoRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if body.FileName == "" {
		return nil, fmt.Errorf("file_name is required")
	}

	params := &CreatePhotoParams{
		FileName:         body.FileName,
		FileSize:         body.FileSize,
		Title:            body.Title,
		MajorCategory:    body.MajorCategory,
		Category:         body.Category,
		ConstructionType: body.ConstructionType,
		WorkType:         body.WorkType,
		DetailType:       body.DetailType,
		ShootingLocation: body.ShootingLocation,
		IsRepresentative: body.IsRepresentative,
		Remarks:          body.Remarks,
	}

	if body.ShootingDate != "" {
		t, err := parseDateField("shooting_date", body.ShootingDate)
		if err != nil {
			return nil, err
		}
		params.ShootingDate = t
	}

	if body.Latitude != nil && body.Longitude != nil {
		params.Location = &model.GeoLocation{
			Latitude:  *body.Latitude,
			Longitude: *body.Longitude,
		}
	}

	if body.Data != "" {
		data, err := decodeBase64Image(body.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 image data: %w", err)
		}
		params.Data = data
	}

	return params, nil
}

// handleCreatePhoto は写真登録エンドポイントのハンドラーです。
// 画像データが添付されている場合、EXIFから未設定の撮影日と位置を補完します。
func (s *Server) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := NewCreatePhotoParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// プロジェクトの存在確認
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			writeJSONError(w, fmt.Sprintf("Project with ID %s not found", projectID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting project: %v", err)
		writeJSONError(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	photo, err := model.NewProjectPhoto(projectID, params.FileName, params.FileSize)
	if err != nil {
		log.Printf("Error creating photo: %v", err)
		writeJSONError(w, "Failed to create photo", http.StatusBadRequest)
		return
	}
	photo.ShootingDate = params.ShootingDate
	photo.Title = params.Title
	photo.MajorCategory = params.MajorCategory
	photo.Category = params.Category
	photo.ConstructionType = params.ConstructionType
	photo.WorkType = params.WorkType
	photo.DetailType = params.DetailType
	photo.ShootingLocation = params.ShootingLocation
	photo.IsRepresentative = params.IsRepresentative
	photo.Remarks = params.Remarks
	photo.Location = params.Location

	// EXIFによる自動補完。EXIFがない画像は正常入力として扱う
	if len(params.Data) > 0 {
		if photo.FileSize == 0 {
			photo.FileSize = int64(len(params.Data))
		}
		meta, err := imagemeta.Extract(params.Data)
		if err != nil && !errors.Is(err, imagemeta.ErrNoExif) {
			log.Printf("Error extracting image metadata: %v", err)
		}
		if meta != nil {
			if photo.ShootingDate.IsZero() && !meta.ShootingDate.IsZero() {
				photo.ShootingDate = meta.ShootingDate
			}
			if photo.Location == nil && meta.HasLocation {
				photo.Location = &model.GeoLocation{
					Latitude:  meta.Latitude,
					Longitude: meta.Longitude,
				}
			}
		}
	}

	if err := s.store.CreatePhoto(r.Context(), photo); err != nil {
		log.Printf("Error creating photo: %v", err)
		writeJSONError(w, "Failed to create photo", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, photo)
}

// parsePhotoID はパスパラメータのphoto_idを解析します。
func parsePhotoID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("photo_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid photo_id: %w", err)
	}
	return id, nil
}

// handleGetPhoto は特定のIDの写真を取得するハンドラーです。
func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parsePhotoID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := s.store.GetPhoto(r.Context(), photoID)
	if err != nil {
		if errors.Is(err, model.ErrPhotoNotFound) {
			writeJSONError(w, fmt.Sprintf("Photo with ID %s not found", photoID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting photo: %v", err)
		writeJSONError(w, "Failed to get photo", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, photo)
}

// handleUpdatePhoto は写真メタデータの更新をハンドリングします。
func (s *Server) handleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parsePhotoID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := s.store.GetPhoto(r.Context(), photoID)
	if err != nil {
		if errors.Is(err, model.ErrPhotoNotFound) {
			writeJSONError(w, fmt.Sprintf("Photo with ID %s not found", photoID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting photo: %v", err)
		writeJSONError(w, "Failed to get photo", http.StatusInternalServerError)
		return
	}

	params, err := NewCreatePhotoParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo.FileName = params.FileName
	if params.FileSize > 0 {
		photo.FileSize = params.FileSize
	}
	photo.ShootingDate = params.ShootingDate
	photo.Title = params.Title
	photo.MajorCategory = params.MajorCategory
	photo.Category = params.Category
	photo.ConstructionType = params.ConstructionType
	photo.WorkType = params.WorkType
	photo.DetailType = params.DetailType
	photo.ShootingLocation = params.ShootingLocation
	photo.IsRepresentative = params.IsRepresentative
	photo.Remarks = params.Remarks
	photo.Location = params.Location

	if err := s.store.UpdatePhoto(r.Context(), photo); err != nil {
		log.Printf("Error updating photo: %v", err)
		writeJSONError(w, "Failed to update photo", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, photo)
}

// handleDeletePhoto は写真削除をハンドリングします。
func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parsePhotoID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.DeletePhoto(r.Context(), photoID); err != nil {
		if errors.Is(err, model.ErrPhotoNotFound) {
			writeJSONError(w, fmt.Sprintf("Photo with ID %s not found", photoID), http.StatusNotFound)
			return
		}
		log.Printf("Error deleting photo: %v", err)
		writeJSONError(w, "Failed to delete photo", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListPhotos は指定プロジェクトの写真一覧を取得するハンドラーです。
func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			writeJSONError(w, fmt.Sprintf("Project with ID %s not found", projectID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting project: %v", err)
		writeJSONError(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	photos, err := s.store.ListPhotos(r.Context(), projectID)
	if err != nil {
		log.Printf("Error listing photos: %v", err)
		writeJSONError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}
	if photos == nil {
		photos = []*model.ProjectPhoto{}
	}
	writeJSON(w, http.StatusOK, photos)
}
