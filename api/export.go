package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/genbalog/genbalog/delivery"
	"github.com/genbalog/genbalog/model"
)

// エクスポートの出力形式。
const (
	ExportFormatZip     = "zip"
	ExportFormatFolder  = "folder"
	ExportFormatPreview = "preview"
)

// ExportParams はエクスポートリクエストのパラメータです。
type ExportParams struct {
	ProjectID uuid.UUID
	Format    string
	// PhotoIDs は対象写真の許可リスト。空の場合は全写真が対象です。
	PhotoIDs []uuid.UUID
	// Files は元ファイル名→画像バイト列。ZIP出力時のみ使用します。
	Files map[string][]byte
	// IncludeReport がtrueの場合、folder/previewレスポンスに納品レポートを含めます。
	IncludeReport bool
}

type exportRequestBody struct {
	Format        string            `json:"format"`
	PhotoIDs      []string          `json:"photo_ids"`
	Files         map[string]string `json:"files"`
	IncludeReport bool              `json:"include_report"`
}

// NewExportParams はHTTPリクエストからエクスポートパラメータを生成します。
func NewExportParams(r *http.Request) (*ExportParams, error) {
	projectID, err := parseProjectID(r)
	if err != nil {
		return nil, err
	}

	var body exportRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	format := body.Format
	if format == "" {
		format = ExportFormatZip
	}
	switch format {
	case ExportFormatZip, ExportFormatFolder, ExportFormatPreview:
	default:
		return nil, fmt.Errorf("invalid format: %s (expected zip, folder or preview)", format)
	}

	params := &ExportParams{
		ProjectID:     projectID,
		Format:        format,
		IncludeReport: body.IncludeReport,
	}

	for _, idStr := range body.PhotoIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid photo id %q: %w", idStr, err)
		}
		params.PhotoIDs = append(params.PhotoIDs, id)
	}

	if len(body.Files) > 0 {
		params.Files = make(map[string][]byte, len(body.Files))
		for name, encoded := range body.Files {
			data, err := decodeBase64Image(encoded)
			if err != nil {
				return nil, fmt.Errorf("invalid base64 data for file %q: %w", name, err)
			}
			params.Files[name] = data
		}
	}

	return params, nil
}

// exportFailureResponse はインフラ障害時の汎用失敗レスポンスです。
type exportFailureResponse struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// exportJSONResponse はfolder/preview形式のレスポンスです。
type exportJSONResponse struct {
	Success          bool                       `json:"success"`
	Message          string                     `json:"message,omitempty"`
	FolderStructure  *delivery.FolderStructure  `json:"folder_structure,omitempty"`
	FolderTree       string                     `json:"folder_tree,omitempty"`
	PhotoXML         string                     `json:"photo_xml,omitempty"`
	IndexXML         string                     `json:"index_xml,omitempty"`
	ValidationResult *delivery.ValidationResult `json:"validation_result,omitempty"`
	ValidationReport string                     `json:"validation_report,omitempty"`
	ReportText       string                     `json:"report_text,omitempty"`
	Report           *delivery.DeliveryReport   `json:"report,omitempty"`
	ProcessingTimeMs int64                      `json:"processing_time_ms"`
}

// handleExport は電子納品エクスポートのハンドラーです。
//
// エラーは3段階で扱います。リクエスト不備は400で即座に拒否し、
// 検証エラーは200でsuccess:falseと検証結果を返し、
// インフラ障害は500で処理時間付きの汎用失敗レスポンスを返します。
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	params, err := NewExportParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := s.store.GetProject(r.Context(), params.ProjectID)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			writeJSONError(w, fmt.Sprintf("Project with ID %s not found", params.ProjectID), http.StatusNotFound)
			return
		}
		log.Printf("Error getting project: %v", err)
		writeJSONError(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	photos, err := s.store.ListPhotos(r.Context(), params.ProjectID)
	if err != nil {
		log.Printf("Error listing photos: %v", err)
		writeJSONError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	// 許可リストによる対象の絞り込み
	if len(params.PhotoIDs) > 0 {
		allowed := make(map[uuid.UUID]bool, len(params.PhotoIDs))
		for _, id := range params.PhotoIDs {
			allowed[id] = true
		}
		var filtered []*model.ProjectPhoto
		for _, photo := range photos {
			if allowed[photo.ID] {
				filtered = append(filtered, photo)
			}
		}
		photos = filtered
	}
	if len(photos) == 0 {
		writeJSONError(w, "No photos to export", http.StatusBadRequest)
		return
	}

	meta := project.ExportMetadata()
	meta.SoftwareName = s.config.Export.SoftwareName

	validator := delivery.NewValidator()
	if s.config.Export.MaxFileSizeMB > 0 {
		validator.MaxFileSizeMB = s.config.Export.MaxFileSizeMB
	}

	opts := &delivery.ExportOptions{
		Folder: &delivery.FolderOptions{
			RootName: s.config.Export.RootFolderName,
		},
		BuildArchive: params.Format == ExportFormatZip,
		Contents:     params.Files,
	}

	result, err := delivery.NewExporterWithValidator(validator).Export(photos, meta, opts)
	if err != nil {
		// インフラ障害：汎用失敗レスポンスに変換する
		var validationErr *model.ValidationError
		status := http.StatusInternalServerError
		if errors.As(err, &validationErr) {
			status = http.StatusBadRequest
		}
		log.Printf("Error exporting project %s: %v", params.ProjectID, err)
		writeJSON(w, status, exportFailureResponse{
			Success:          false,
			Error:            err.Error(),
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	elapsed := time.Since(started).Milliseconds()

	if params.Format == ExportFormatZip && result.Success {
		s.writeZipResponse(w, params.ProjectID, result.Archive, elapsed)
		return
	}

	// folder/preview、および検証エラーで停止したzipリクエストはJSONで返す
	resp := exportJSONResponse{
		Success:          result.Success,
		Message:          result.Message,
		FolderStructure:  result.FolderStructure,
		PhotoXML:         result.PhotoXML,
		IndexXML:         result.IndexXML,
		ValidationResult: result.ValidationResult,
		ValidationReport: result.ValidationReport,
		ProcessingTimeMs: elapsed,
	}
	if result.FolderStructure != nil {
		resp.FolderTree = delivery.RenderFolderTree(result.FolderStructure)
	}
	if params.IncludeReport && result.Report != nil {
		resp.Report = result.Report
		resp.ReportText = delivery.FormatReportText(result.Report)
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeZipResponse はZIPアーカイブをバイナリストリームとして返却します。
func (s *Server) writeZipResponse(w http.ResponseWriter, projectID uuid.UUID, archive *delivery.ArchiveResult, elapsedMs int64) {
	fileName := fmt.Sprintf("electronic_delivery_%s_%s.zip", projectID, time.Now().Format("20060102150405"))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	w.Header().Set("X-Processing-Time-Ms", strconv.FormatInt(elapsedMs, 10))
	w.Header().Set("X-File-Count", strconv.Itoa(archive.FileCount))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(archive.Data); err != nil {
		log.Printf("Error writing archive response: %v", err)
	}
}
