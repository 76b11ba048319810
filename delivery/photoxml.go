package delivery

import "strconv"

// PhotoXMLRequiredTags はPHOTO.XMLの構造チェックで確認する必須タグです。
var PhotoXMLRequiredTags = []string{"photoData", "photo"}

// GeneratePhotoXML はフォルダ構成からPHOTO.XML文書を生成します。
// 同一の入力に対して常に同一の文字列を返します（タイムスタンプを含みません）。
// 要素名は英語、写真1枚ごとに<photo>ブロックを出力します。
func GeneratePhotoXML(fs *FolderStructure, opts *XMLOptions) string {
	w := newXMLWriter(opts)
	w.declaration()
	w.open("photoData")

	for _, entry := range fs.PhotoFiles {
		info := entry.Info
		w.open("photo")
		w.element("photoNumber", strconv.Itoa(info.PhotoNumber))
		w.element("fileName", info.FileName)
		w.element("title", info.Title)
		w.element("majorCategory", info.MajorCategory)
		w.element("category", info.Category)
		// 任意項目は値がある場合のみ要素自体を出力する
		w.optionalElement("constructionType", info.ConstructionType)
		w.optionalElement("workType", info.WorkType)
		w.optionalElement("detailType", info.DetailType)
		w.element("shootingDate", info.ShootingDate)
		w.optionalElement("shootingLocation", info.ShootingLocation)
		w.element("isRepresentative", strconv.FormatBool(info.IsRepresentative))
		w.optionalElement("remarks", info.Remarks)
		if info.Latitude != "" && info.Longitude != "" {
			w.open("location")
			w.element("latitude", info.Latitude)
			w.element("longitude", info.Longitude)
			w.close("location")
		}
		w.close("photo")
	}

	w.close("photoData")
	return w.String()
}

// ParsePhotoXML はPHOTO.XML文書からのフォルダ構成の復元を行う予定のAPIです。
// ラウンドトリップのインポートは現在サポートしておらず、常にnilを返します。
func ParsePhotoXML(xmlStr string) *FolderStructure {
	return nil
}
