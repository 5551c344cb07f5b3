// Package xml provides the WordprocessingML element structures docforge writes into
// and reads back from word/document.xml.
//
// DOCX files are ZIP archives of XML parts. The main part, word/document.xml, holds a
// w:body whose children are paragraphs (w:p), tables (w:tbl) and a trailing section
// properties element (w:sectPr). The types here cover the subset of that vocabulary a
// generated document needs.
//
// # Structure Organization
//
//   - types.go: core interfaces (BodyElement, ParagraphContent) and shared value types
//   - document.go: Document and Body, plus the body layout scanner used for splicing
//   - paragraph.go: paragraphs, paragraph properties, numbering and spacing
//   - run.go: runs, run properties, text and breaks
//   - table.go: tables, rows, cells and their properties
//   - drawing.go: inline DrawingML pictures
//
// # Marshaling
//
// Every element implements MarshalXML and writes prefixed local names ("w:p",
// "wp:inline", "r:embed"). The prefixes must be declared on the enclosing document
// root; SpliceBody adds any declarations a template is missing.
//
// Unmarshaling keeps the order of paragraph content and body elements, and skips
// elements the types do not model:
//
//	doc, err := xml.ParseDocument(r)
//	if err != nil {
//	    return err
//	}
//	for _, el := range doc.Body.Elements {
//	    if p, ok := el.(*xml.Paragraph); ok {
//	        fmt.Println(p.GetText())
//	    }
//	}
package xml
