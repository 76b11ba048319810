package delivery

import (
	"fmt"

	"github.com/genbalog/genbalog/model"
)

// エクスポート処理の進行ステップ。failedを除き固定の直線順で遷移します。
const (
	StepPreparing       = "preparing"
	StepCreatingFolders = "creating-folders"
	StepCopyingPhotos   = "copying-photos"
	StepGeneratingXML   = "generating-xml"
	StepValidating      = "validating"
	StepCreatingArchive = "creating-archive"
	StepCompleted       = "completed"
	StepFailed          = "failed"
)

// TotalExportSteps は完了を除いた処理ステップ数です。
const TotalExportSteps = 6

// Progress は進捗コールバックに渡される状態です。
type Progress struct {
	CurrentStep     string  `json:"current_step"`
	TotalSteps      int     `json:"total_steps"`
	CompletedSteps  int     `json:"completed_steps"`
	ProgressPercent float64 `json:"progress_percent"`
	ProcessedFiles  int     `json:"processed_files"`
	TotalFiles      int     `json:"total_files"`
}

// ProgressFunc はステップ遷移ごとに呼ばれるコールバックです。nil可。
type ProgressFunc func(Progress)

// ExportOptions はエクスポート実行時の指定です。
type ExportOptions struct {
	// Folder はフォルダ生成の指定です。nilの場合は既定値を使います。
	Folder *FolderOptions
	// BuildArchive がfalseの場合、ZIP生成をスキップします（folder/preview出力向け）。
	BuildArchive bool
	// Contents は元ファイル名から画像バイト列へのマップです。
	// BuildArchiveがtrueのときのみ参照されます。
	Contents map[string][]byte
	// OnProgress は進捗通知です。nil可。
	OnProgress ProgressFunc
}

// ExportResult はエクスポート実行の結果です。
// 検証エラーで停止した場合、Successはfalseですが
// ValidationResultとXML文字列は参照できます。
type ExportResult struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message,omitempty"`
	FolderStructure  *FolderStructure  `json:"folder_structure,omitempty"`
	PhotoXML         string            `json:"photo_xml,omitempty"`
	IndexXML         string            `json:"index_xml,omitempty"`
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
	ValidationReport string            `json:"validation_report,omitempty"`
	Report           *DeliveryReport   `json:"report,omitempty"`
	Archive          *ArchiveResult    `json:"-"`
}

// Exporter は納品パッケージ生成の一連の処理を順に実行します。
// 1回のエクスポートごとに1インスタンスを使い、共有しないでください。
type Exporter struct {
	validator *Validator
}

// NewExporter はExporterを生成します。
func NewExporter() *Exporter {
	return &Exporter{validator: NewValidator()}
}

// NewExporterWithValidator は検証設定を差し替えてExporterを生成します。
func NewExporterWithValidator(v *Validator) *Exporter {
	return &Exporter{validator: v}
}

func (e *Exporter) notify(opts *ExportOptions, step string, completed, processed, total int) {
	if opts.OnProgress == nil {
		return
	}
	percent := float64(completed) / float64(TotalExportSteps) * 100
	opts.OnProgress(Progress{
		CurrentStep:     step,
		TotalSteps:      TotalExportSteps,
		CompletedSteps:  completed,
		ProgressPercent: percent,
		ProcessedFiles:  processed,
		TotalFiles:      total,
	})
}

// Export は写真とメタデータから納品パッケージを生成します。
// 検証に失敗した場合はアーカイブを生成せず、Success=falseの結果を返します。
// 検証エラーはエラー戻り値ではなく結果に載せて返します。
func (e *Exporter) Export(photos []*model.ProjectPhoto, meta *model.ExportMetadata, opts *ExportOptions) (*ExportResult, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	total := len(photos)

	e.notify(opts, StepPreparing, 0, 0, total)
	if meta == nil {
		e.notify(opts, StepFailed, 0, 0, total)
		return nil, fmt.Errorf("エクスポートメタデータが指定されていません")
	}
	if err := meta.Validate(); err != nil {
		e.notify(opts, StepFailed, 0, 0, total)
		return nil, err
	}

	e.notify(opts, StepCreatingFolders, 1, 0, total)
	fs, err := GenerateFolderStructure(photos, opts.Folder)
	if err != nil {
		e.notify(opts, StepFailed, 1, 0, total)
		return nil, fmt.Errorf("フォルダ構成の生成に失敗しました: %w", err)
	}

	e.notify(opts, StepCopyingPhotos, 2, len(fs.PhotoFiles), total)

	e.notify(opts, StepGeneratingXML, 3, len(fs.PhotoFiles), total)
	photoXML := GeneratePhotoXML(fs, nil)
	indexXML := GenerateIndexXML(fs, meta, nil)

	e.notify(opts, StepValidating, 4, len(fs.PhotoFiles), total)
	vr := e.validator.Validate(fs)
	for _, xr := range []*ValidationResult{
		e.validator.ValidateXML(photoXML, PhotoXMLRequiredTags),
		e.validator.ValidateXML(indexXML, IndexXMLRequiredTags),
	} {
		if !xr.IsValid {
			vr.Errors = append(vr.Errors, xr.Errors...)
			vr.IsValid = false
		}
	}

	result := &ExportResult{
		FolderStructure:  fs,
		PhotoXML:         photoXML,
		IndexXML:         indexXML,
		ValidationResult: vr,
		ValidationReport: FormatValidationResult(vr),
		Report:           GenerateReport(fs, meta, vr),
	}

	if !vr.IsValid {
		result.Message = fmt.Sprintf("検証エラーのためエクスポートを中止しました（エラー%d件）", len(vr.Errors))
		e.notify(opts, StepFailed, 4, len(fs.PhotoFiles), total)
		return result, nil
	}

	if opts.BuildArchive {
		e.notify(opts, StepCreatingArchive, 5, len(fs.PhotoFiles), total)
		archive, err := CreateDeliveryArchive(fs, meta, opts.Contents)
		if err != nil {
			e.notify(opts, StepFailed, 5, len(fs.PhotoFiles), total)
			return nil, fmt.Errorf("アーカイブの生成に失敗しました: %w", err)
		}
		result.Archive = archive
	}

	result.Success = true
	e.notify(opts, StepCompleted, TotalExportSteps, len(fs.PhotoFiles), total)
	return result, nil
}
