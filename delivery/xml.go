package delivery

import (
	"strings"
)

// XMLOptions はXML生成の整形オプションです。
type XMLOptions struct {
	Indent string // インデント単位。空の場合はスペース2つ
}

// xmlEscaper はテキストノードに埋め込む5つの特殊文字をエスケープします。
// 文字列連結でXMLを組み立てるため、全フィールドに必ず適用します。
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeXML はXMLテキストノード用に値をエスケープします。
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// xmlWriter は手動インデントによるXML文書の組み立てを行います。
// PHOTO.XMLとINDEX_D.XMLで共通の「エスケープ+インデント+条件付き要素」
// の処理をここに集約しています。
type xmlWriter struct {
	sb     strings.Builder
	indent string
	depth  int
}

// newXMLWriter は新しいxmlWriterを作成します。
func newXMLWriter(opts *XMLOptions) *xmlWriter {
	indent := "  "
	if opts != nil && opts.Indent != "" {
		indent = opts.Indent
	}
	return &xmlWriter{indent: indent}
}

// declaration はXML宣言行を出力します。
func (w *xmlWriter) declaration() {
	w.sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
}

// open は開始タグを出力し、ネストを1段深くします。
func (w *xmlWriter) open(tag string) {
	w.writeIndent()
	w.sb.WriteString("<" + tag + ">\n")
	w.depth++
}

// close はネストを1段戻して終了タグを出力します。
func (w *xmlWriter) close(tag string) {
	w.depth--
	w.writeIndent()
	w.sb.WriteString("</" + tag + ">\n")
}

// element は値をエスケープした要素を1行で出力します。値が空でも出力します。
func (w *xmlWriter) element(tag, value string) {
	w.writeIndent()
	w.sb.WriteString("<" + tag + ">" + escapeXML(value) + "</" + tag + ">\n")
}

// optionalElement は値が空でない場合のみ要素を出力します。
// 空の要素を出力するのではなく、要素自体を省略します。
func (w *xmlWriter) optionalElement(tag, value string) {
	if value == "" {
		return
	}
	w.element(tag, value)
}

func (w *xmlWriter) writeIndent() {
	for i := 0; i < w.depth; i++ {
		w.sb.WriteString(w.indent)
	}
}

// String は組み立てたXML文書を返します。
func (w *xmlWriter) String() string {
	return w.sb.String()
}

// IsValidXMLStructure は必須タグの開始・終了ペアが文書内に存在するかを
// 部分文字列検索で確認します。意図的に完全なパーサーではありません。
func IsValidXMLStructure(xmlStr string, requiredTags []string) bool {
	return hasXMLDeclaration(xmlStr) && len(missingXMLTags(xmlStr, requiredTags)) == 0
}

// hasXMLDeclaration は文書がXML宣言を含むかを確認します。
func hasXMLDeclaration(xmlStr string) bool {
	return strings.Contains(xmlStr, "<?xml")
}

// missingXMLTags は開始・終了ペアの揃っていない必須タグを返します。
func missingXMLTags(xmlStr string, requiredTags []string) []string {
	var missing []string
	for _, tag := range requiredTags {
		if !strings.Contains(xmlStr, "<"+tag+">") || !strings.Contains(xmlStr, "</"+tag+">") {
			missing = append(missing, tag)
		}
	}
	return missing
}
