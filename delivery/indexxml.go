package delivery

import (
	"strconv"

	"github.com/genbalog/genbalog/model"
)

// IndexXMLRequiredTags はINDEX_D.XMLの構造チェックで確認する必須タグです。
var IndexXMLRequiredTags = []string{"工事写真情報", "基礎情報", "工事件名等", "請負者情報", "工期"}

// GenerateIndexXML はフォルダ構成と工事メタデータからINDEX_D.XML文書を生成します。
// 要素名は基準に従い日本語です。セクションの順序は固定で、埋め込まれる日付は
// 呼び出し側が与えた工期のみです。
func GenerateIndexXML(fs *FolderStructure, meta *model.ExportMetadata, opts *XMLOptions) string {
	w := newXMLWriter(opts)
	w.declaration()
	w.open("工事写真情報")

	// 基礎情報
	w.open("基礎情報")
	w.element("写真フォルダ名", fs.PicFolderPath)
	w.optionalElement("図面フォルダ名", fs.DraFolderPath)
	w.element("写真情報ファイル名", PhotoXMLFileName)
	w.close("基礎情報")

	// 工事件名等
	w.open("工事件名等")
	w.element("工事名称", meta.ConstructionName)
	w.optionalElement("工事番号", meta.ConstructionNumber)
	w.close("工事件名等")

	// 場所情報
	w.open("場所情報")
	w.optionalElement("施工場所", meta.Location)
	w.close("場所情報")

	// 施設情報は常に空で出力する
	w.element("施設情報", "")

	// 発注者情報
	w.open("発注者情報")
	w.optionalElement("発注者名称", meta.OrdererName)
	w.optionalElement("発注者コード", meta.OrdererCode)
	w.close("発注者情報")

	// 請負者情報
	w.open("請負者情報")
	w.element("請負者名称", meta.ContractorName)
	w.optionalElement("請負者コード", meta.ContractorCode)
	w.close("請負者情報")

	// 工期
	w.open("工期")
	w.element("工期開始日", meta.StartDate.Format("2006-01-02"))
	w.element("工期終了日", meta.EndDate.Format("2006-01-02"))
	w.close("工期")

	// 分野・工種
	w.open("分野工種情報")
	w.optionalElement("対象分野", meta.FieldName)
	w.close("分野工種情報")

	// 概要
	representativeCount := 0
	for _, entry := range fs.PhotoFiles {
		if entry.Info.IsRepresentative {
			representativeCount++
		}
	}
	w.open("概要")
	w.element("写真枚数", strconv.Itoa(len(fs.PhotoFiles)))
	w.element("代表写真枚数", strconv.Itoa(representativeCount))
	w.element("図面枚数", strconv.Itoa(len(fs.DrawingFiles)))
	w.close("概要")

	// メディア情報（複数巻構成は未対応のため常に1枚目/全1枚）
	w.open("メディア情報")
	w.element("メディア番号", "1")
	w.element("メディア総枚数", "1")
	w.close("メディア情報")

	// 写真情報
	w.open("写真情報")
	for _, entry := range fs.PhotoFiles {
		w.element("写真ファイル名", entry.DeliveryFileName)
	}
	w.close("写真情報")

	// ソフトメーカ用TAG
	w.open("ソフトメーカ用TAG")
	w.optionalElement("ソフトメーカ名", meta.SoftwareName)
	w.close("ソフトメーカ用TAG")

	w.close("工事写真情報")
	return w.String()
}
