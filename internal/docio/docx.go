// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docio

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/pdiddy/docfill/pkg/types"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// docxStyles declares Normal plus Heading1..Heading9 so Word shows the
// outline in its navigation pane.
func docxStyles() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:styles xmlns:w="` + wordNS + `">`)
	b.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>`)
	for i := 1; i <= 9; i++ {
		size := max(32-4*(i-1), 22)
		fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Heading%d"><w:name w:val="heading %d"/>`+
			`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`+
			`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="%d"/></w:pPr>`+
			`<w:rPr><w:b/><w:sz w:val="%d"/></w:rPr></w:style>`, i, i, i-1, size)
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

func renderDocx(records []types.Record) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	body.WriteString(`<w:document xmlns:w="` + wordNS + `"><w:body>`)
	for _, r := range records {
		switch r.Kind {
		case types.RecordHeading:
			level := min(max(r.Level, 1), 9)
			fmt.Fprintf(&body, `<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>`, level)
			if err := writeRuns(&body, r.Text); err != nil {
				return nil, err
			}
			body.WriteString(`</w:p>`)
		case types.RecordParagraph:
			body.WriteString(`<w:p>`)
			if err := writeRuns(&body, strings.TrimSpace(r.Text)); err != nil {
				return nil, err
			}
			body.WriteString(`</w:p>`)
		}
	}
	body.WriteString(`<w:sectPr/></w:body></w:document>`)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRootRels)},
		{"word/_rels/document.xml.rels", []byte(docxDocumentRels)},
		{"word/styles.xml", []byte(docxStyles())},
		{"word/document.xml", body.Bytes()},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := f.Write(p.content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing docx package: %w", err)
	}
	return out.Bytes(), nil
}

// writeRuns emits one run per line, separated by line breaks.
func writeRuns(buf *bytes.Buffer, text string) error {
	for i, line := range strings.Split(text, "\n") {
		buf.WriteString(`<w:r>`)
		if i > 0 {
			buf.WriteString(`<w:br/>`)
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(buf, []byte(line)); err != nil {
			return fmt.Errorf("escaping text: %w", err)
		}
		buf.WriteString(`</w:t></w:r>`)
	}
	return nil
}
