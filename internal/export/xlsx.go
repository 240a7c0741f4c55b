package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/pkg/value"
)

// Static members of the workbook container. A spreadsheet file is a
// zip archive of XML parts; everything except the sheet itself is
// boilerplate wiring the parts together.
const (
	xlsxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
</Types>`

	xlsxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

	xlsxWorkbookRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`
)

// XLSX writes the dataset as a single-sheet spreadsheet. Text cells
// use inline strings so no shared-string table is needed; numeric
// cells stay numeric; NULL cells are left absent.
func XLSX(w io.Writer, d Dataset) error {
	if err := d.check(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	parts := []struct {
		name, body string
	}{
		{"[Content_Types].xml", xlsxContentTypes},
		{"_rels/.rels", xlsxRootRels},
		{"xl/_rels/workbook.xml.rels", xlsxWorkbookRels},
		{"xl/workbook.xml", workbookXML(d.Table)},
		{"xl/worksheets/sheet1.xml", sheetXML(d)},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return errors.StorageError("export: create xlsx part "+p.name, err)
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			return errors.StorageError("export: write xlsx part "+p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.StorageError("export: finalize xlsx", err)
	}
	return nil
}

func workbookXML(sheetName string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	fmt.Fprintf(&b, `<sheets><sheet name="%s" sheetId="1" r:id="rId1"/></sheets>`, xmlEscape(sheetName))
	b.WriteString(`</workbook>`)
	return b.String()
}

func sheetXML(d Dataset) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)

	b.WriteString(`<row r="1">`)
	for i, col := range d.Columns {
		writeInlineStr(&b, cellRef(i, 1), col)
	}
	b.WriteString(`</row>`)

	for r, row := range d.Rows {
		fmt.Fprintf(&b, `<row r="%d">`, r+2)
		for i, col := range d.Columns {
			v := row[col]
			ref := cellRef(i, r+2)
			switch v.Kind() {
			case value.KindNull:
				// absent cell
			case value.KindInteger, value.KindReal:
				fmt.Fprintf(&b, `<c r="%s"><v>%s</v></c>`, ref, v.String())
			default:
				writeInlineStr(&b, ref, v.Str())
			}
		}
		b.WriteString(`</row>`)
	}

	b.WriteString(`</sheetData></worksheet>`)
	return b.String()
}

func writeInlineStr(b *strings.Builder, ref, s string) {
	fmt.Fprintf(b, `<c r="%s" t="inlineStr"><is><t xml:space="preserve">%s</t></is></c>`, ref, xmlEscape(s))
}

// cellRef converts a zero-based column index and one-based row number
// to A1 notation.
func cellRef(col, row int) string {
	name := ""
	for c := col; ; c = c/26 - 1 {
		name = string(rune('A'+c%26)) + name
		if c < 26 {
			break
		}
	}
	return fmt.Sprintf("%s%d", name, row)
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s)) // cannot fail on a Builder
	return b.String()
}
