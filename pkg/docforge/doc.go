// Package docforge assembles Microsoft Word documents (DOCX) from content added piece by
// piece: paragraphs with bullet sub-paragraphs and comments, tables, images and an
// optional cover template.
//
// # Quick Start
//
// Content goes into a Store. Parents are referenced by the ids the store hands out:
//
//	s := docforge.NewStore()
//	id, err := s.AddParagraph("Quarterly summary")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s.AddSubParagraph(id, "Revenue grew")
//	s.AddComment(id, "check the Q3 figures")
//	s.AddTable(2, 3, [][]string{{"a", "b", "c"}})
//
//	data, err := docforge.Export(context.Background(), s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(docforge.Filename, data, 0644)
//
// # Views
//
// The store can be projected without modifying it:
//
//   - RenderPreview returns the ordered display blocks of the document.
//   - RenderMarkdown turns those blocks into Markdown for terminals.
//   - Project returns the structure graph (nodes and parent edges) as a forest.
//
// # Cover Templates
//
// A cover template is a .docx paired with a preview image of the same base name in a
// templates folder:
//
//	covers/
//	  Corporate.docx
//	  Corporate.png
//
// ScanCatalog discovers the pairs. When a cover is selected, the exported document is
// the template with the content appended before its final section properties; the
// ListBullet and TableGrid styles are added to the template when it lacks them.
//
// # Manifests
//
// LoadManifest reads a YAML description of a document and Replay applies it to a new
// store through the same operations, so the same validation applies:
//
//	cover_folder: covers
//	cover: Corporate
//	paragraphs:
//	  - text: Quarterly summary
//	    sub_paragraphs: [Revenue grew]
//	    comments: [check the Q3 figures]
//	tables:
//	  - rows: 2
//	    cols: 3
//	    cells: [[a, b, c]]
//	images: [chart.png]
//
// # Errors
//
// Rejected operations return *ValidationError or *NotFoundError and leave the store
// unchanged. Export returns *TemplateLoadError when the cover cannot be read and
// *SerializationError when the package cannot be written. Use the IsXxx helpers to
// classify an error.
//
// # Configuration
//
// Config carries the exporter and server settings. It loads from YAML with LoadConfig and
// honours DOCFORGE_* environment variables (DOCFORGE_LOG_LEVEL, DOCFORGE_TEMPLATES_DIR,
// DOCFORGE_CACHE_MAX_SIZE and others).
package docforge
